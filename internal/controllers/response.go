package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"sunu_bank/internal/bank"
)

// Every endpoint answers with the same envelope:
// {success, message, data, errors?, pagination?, links?}.

func successResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func validationResponse(c *gin.Context, errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"success": false,
		"message": "Les données fournies sont invalides",
		"errors":  errs,
	})
}

func paginatedResponse(c *gin.Context, message string, data interface{}, page, limit int, total int64) {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	base := c.Request.URL.Path
	pageURL := func(p int) string {
		return fmt.Sprintf("%s?page=%d&limit=%d", base, p, limit)
	}
	var next interface{}
	if page < totalPages {
		next = pageURL(page + 1)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    data,
		"pagination": gin.H{
			"currentPage":  page,
			"totalPages":   totalPages,
			"totalItems":   total,
			"itemsPerPage": limit,
			"hasNext":      page < totalPages,
			"hasPrevious":  page > 1,
		},
		"links": gin.H{
			"self":  pageURL(page),
			"next":  next,
			"first": pageURL(1),
			"last":  pageURL(totalPages),
		},
	})
}

// bindingErrors turns validator violations into a field-keyed map for 422
// responses. Non-validator errors fall back to a single "body" entry.
func bindingErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "Corps de requête invalide"
		return out
	}
	for _, fe := range verrs {
		out[fieldName(fe)] = fieldMessage(fe)
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	// Namespace carries the json names, e.g. "createCompteInput.client.email";
	// keep the path below the top-level struct.
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est obligatoire"
	case "email":
		return "L'email doit être valide"
	case "telephone_sn":
		return "Le numéro de téléphone doit être au format sénégalais (ex: +221771234567)"
	case "nci_sn":
		return "Le numéro NCI doit être au format : 2 lettres majuscules suivies de 9 chiffres (ex: AB123456789)"
	case "oneof":
		return fmt.Sprintf("La valeur doit être parmi : %s", fe.Param())
	case "min":
		return fmt.Sprintf("La valeur minimale est %s", fe.Param())
	case "max":
		return fmt.Sprintf("La valeur maximale est %s", fe.Param())
	default:
		return "Valeur invalide"
	}
}

// respondDomainError maps the bank sentinels onto HTTP statuses. Anything
// unrecognized is logged in full and surfaced as a generic 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bank.ErrNotFound), errors.Is(err, bank.ErrClientNotFound):
		errorResponse(c, http.StatusNotFound, "Ressource introuvable")
	case errors.Is(err, bank.ErrAlreadyClosed):
		errorResponse(c, http.StatusBadRequest, "Le compte est déjà fermé")
	case errors.Is(err, bank.ErrPositiveBalance):
		errorResponse(c, http.StatusBadRequest, "Impossible de fermer le compte : solde positif détecté. Veuillez d'abord retirer tous les fonds.")
	case errors.Is(err, bank.ErrMinimumDeposit):
		errorResponse(c, http.StatusUnprocessableEntity, "Le solde initial doit être supérieur ou égal au minimum requis")
	case errors.Is(err, bank.ErrEmptyUpdate):
		errorResponse(c, http.StatusUnprocessableEntity, "Au moins un champ doit être fourni")
	case errors.Is(err, bank.ErrConflict):
		errorResponse(c, http.StatusConflict, "Une valeur unique est déjà utilisée")
	case errors.Is(err, bank.ErrCompteBloque):
		errorResponse(c, http.StatusBadRequest, "Le compte est bloqué")
	case errors.Is(err, bank.ErrCompteFerme):
		errorResponse(c, http.StatusBadRequest, "Le compte est fermé")
	case errors.Is(err, bank.ErrMotifRequired):
		errorResponse(c, http.StatusUnprocessableEntity, "Un motif de blocage est requis")
	case errors.Is(err, bank.ErrInvalidStatut):
		errorResponse(c, http.StatusBadRequest, "Transition de statut invalide")
	case errors.Is(err, bank.ErrInvalidAmount):
		errorResponse(c, http.StatusUnprocessableEntity, "Le montant doit être supérieur à zéro")
	case errors.Is(err, bank.ErrInvalidType):
		errorResponse(c, http.StatusUnprocessableEntity, "Type invalide")
	case errors.Is(err, bank.ErrSelfTransfer):
		errorResponse(c, http.StatusBadRequest, "Impossible de transférer vers le même compte")
	case errors.Is(err, bank.ErrInsufficient):
		errorResponse(c, http.StatusBadRequest, "Solde insuffisant")
	case errors.Is(err, bank.ErrNumeroExhausted):
		logrus.WithError(err).Error("génération de numéro de compte épuisée")
		errorResponse(c, http.StatusInternalServerError, "Une erreur est survenue")
	default:
		logrus.WithError(err).Error("erreur interne")
		errorResponse(c, http.StatusInternalServerError, "Une erreur est survenue")
	}
}
