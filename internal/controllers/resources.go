package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"sunu_bank/internal/models"
)

// compteResource shapes a compte for the API, solde included.
func compteResource(compte *models.Compte, solde decimal.Decimal) gin.H {
	user := compte.Client.User
	var motif interface{}
	if compte.MotifBlocage != nil {
		motif = *compte.MotifBlocage
	}
	return gin.H{
		"id":           compte.ID,
		"numeroCompte": compte.NumeroCompte,
		"titulaire":    user.Nom + " " + user.Prenom,
		"type":         compte.Type,
		"solde":        solde.StringFixed(2),
		"devise":       "FCFA",
		"dateCreation": compte.CreatedAt.Format(time.RFC3339),
		"statut":       compte.Statut,
		"motifBlocage": motif,
		"metadata": gin.H{
			"derniereModification": compte.UpdatedAt.Format(time.RFC3339),
			"version":              1,
		},
	}
}

func transactionResource(tx *models.Transaction) gin.H {
	return gin.H{
		"id":           tx.ID,
		"compteId":     tx.CompteID,
		"type":         tx.Type,
		"montant":      tx.Montant.StringFixed(2),
		"destinataire": tx.DestinataireID,
		"date":         tx.CreatedAt.Format(time.RFC3339),
	}
}
