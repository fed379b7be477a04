package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sunu_bank/internal/bank"
	"sunu_bank/internal/middleware"
	"sunu_bank/internal/models"
	"sunu_bank/internal/policy"
)

// BankService is the slice of the lifecycle service the HTTP layer needs.
type BankService interface {
	OpenCompte(ctx context.Context, input bank.OpenCompteInput) (*models.Compte, error)
	GetCompte(ctx context.Context, id uuid.UUID, includeClosed bool) (*models.Compte, error)
	UpdateClientInfo(ctx context.Context, id uuid.UUID, input bank.UpdateClientInput) (*models.Compte, decimal.Decimal, error)
	CloseCompte(ctx context.Context, id uuid.UUID) (*models.Compte, error)
	BlockCompte(ctx context.Context, id uuid.UUID, motif string) (*models.Compte, error)
	UnblockCompte(ctx context.Context, id uuid.UUID) (*models.Compte, error)
	ListComptes(ctx context.Context, filters bank.ListFilters, page bank.Page) ([]models.Compte, int64, error)
	ListTransactions(ctx context.Context, compteID uuid.UUID, page bank.Page) ([]models.Transaction, int64, error)
	RecordTransaction(ctx context.Context, compteID uuid.UUID, txType string, montant decimal.Decimal, destinataireID *uuid.UUID) (*models.Transaction, error)
	Balance(ctx context.Context, compteID uuid.UUID) (decimal.Decimal, error)
	BalanceOrZero(ctx context.Context, compteID uuid.UUID) decimal.Decimal
}

type CompteController struct {
	svc BankService
}

func NewCompteController(svc BankService) *CompteController {
	return &CompteController{svc: svc}
}

type createClientInput struct {
	ID         *uuid.UUID `json:"id" binding:"omitempty"`
	Titulaire  string     `json:"titulaire" binding:"required_without=ID,omitempty,min=2,max=255"`
	NCI        string     `json:"nci" binding:"required_without=ID,omitempty,nci_sn"`
	Email      string     `json:"email" binding:"required_without=ID,omitempty,email"`
	Telephone  string     `json:"telephone" binding:"required_without=ID,omitempty,telephone_sn"`
	Adresse    string     `json:"adresse" binding:"required_without=ID,omitempty,min=5,max=500"`
	Profession string     `json:"profession" binding:"omitempty,max=255"`
}

type createCompteInput struct {
	Type         string            `json:"type" binding:"required,oneof=cheque epargne"`
	SoldeInitial decimal.Decimal   `json:"soldeInitial" binding:"required"`
	Devise       string            `json:"devise" binding:"required,oneof=FCFA"`
	Client       createClientInput `json:"client" binding:"required"`
}

// Create opens a compte: 201 with the resource, the initial deposit already
// on the ledger.
func (cc *CompteController) Create(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	if !policy.Allowed(actor, policy.CreateCompte, nil) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	var input createCompteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationResponse(c, bindingErrors(err))
		return
	}

	compte, err := cc.svc.OpenCompte(c.Request.Context(), bank.OpenCompteInput{
		Type:         input.Type,
		SoldeInitial: input.SoldeInitial,
		Devise:       input.Devise,
		Client: bank.ClientInput{
			ID:         input.Client.ID,
			Titulaire:  input.Client.Titulaire,
			NCI:        input.Client.NCI,
			Email:      input.Client.Email,
			Telephone:  input.Client.Telephone,
			Adresse:    input.Client.Adresse,
			Profession: input.Client.Profession,
		},
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	solde := cc.svc.BalanceOrZero(c.Request.Context(), compte.ID)
	successResponse(c, http.StatusCreated, "Compte créé avec succès", compteResource(compte, solde))
}

// List answers the paginated compte listing. Clients only ever see their own
// comptes regardless of the filters they send.
func (cc *CompteController) List(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	if !policy.Allowed(actor, policy.ViewAnyComptes, nil) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	page := bank.Page{
		Number: queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}.Normalize()

	filters := bank.ListFilters{
		Statut:        c.Query("statut"),
		Type:          c.Query("type"),
		Numero:        c.Query("numero"),
		SoldePositif:  c.Query("soldePositif") == "true",
		DerniersJours: queryInt(c, "derniersJours", 0),
		IncludeClosed: c.Query("inclureFermes") == "true",
	}
	if raw := c.Query("clientId"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filters.ClientID = &id
		}
	}
	if actor.Role == models.RoleClient {
		filters.ClientID = actor.ClientID
	}

	comptes, total, err := cc.svc.ListComptes(c.Request.Context(), filters, page)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resources := make([]gin.H, 0, len(comptes))
	for i := range comptes {
		solde := cc.svc.BalanceOrZero(c.Request.Context(), comptes[i].ID)
		resources = append(resources, compteResource(&comptes[i], solde))
	}

	paginatedResponse(c, "Comptes récupérés avec succès", resources, page.Number, page.Limit, total)
}

// Get returns one compte with its computed solde.
func (cc *CompteController) Get(c *gin.Context) {
	compteID, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)

	compte, err := cc.svc.GetCompte(c.Request.Context(), compteID, actor.Role == models.RoleAdmin)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !policy.Allowed(actor, policy.ViewCompte, compte) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	solde, err := cc.svc.Balance(c.Request.Context(), compteID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Compte récupéré avec succès", compteResource(compte, solde))
}

type updateClientInput struct {
	Titulaire *string `json:"titulaire" binding:"omitempty,min=2,max=255"`
	Telephone *string `json:"telephone" binding:"omitempty,telephone_sn"`
	Email     *string `json:"email" binding:"omitempty,email"`
	NCI       *string `json:"nci" binding:"omitempty,nci_sn"`
}

// Update applies partial client fields to the user behind the compte.
func (cc *CompteController) Update(c *gin.Context) {
	compteID, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)

	compte, err := cc.svc.GetCompte(c.Request.Context(), compteID, false)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !policy.Allowed(actor, policy.UpdateCompte, compte) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	var input updateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationResponse(c, bindingErrors(err))
		return
	}

	updated, solde, err := cc.svc.UpdateClientInfo(c.Request.Context(), compteID, bank.UpdateClientInput{
		Titulaire: input.Titulaire,
		Telephone: input.Telephone,
		Email:     input.Email,
		NCI:       input.NCI,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Compte mis à jour avec succès", compteResource(updated, solde))
}

// Close is terminal: rejected on positive balance, conflict when already
// closed, soft-deleted from default views on success.
func (cc *CompteController) Close(c *gin.Context) {
	compteID, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)

	compte, err := cc.svc.GetCompte(c.Request.Context(), compteID, true)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !policy.Allowed(actor, policy.CloseCompte, compte) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	closed, err := cc.svc.CloseCompte(c.Request.Context(), compteID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Compte fermé avec succès", compteResource(closed, decimal.Zero))
}

type blockInput struct {
	Motif string `json:"motif" binding:"required,min=3"`
}

func (cc *CompteController) Block(c *gin.Context) {
	compteID, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)

	compte, err := cc.svc.GetCompte(c.Request.Context(), compteID, false)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !policy.Allowed(actor, policy.CloseCompte, compte) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	var input blockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationResponse(c, bindingErrors(err))
		return
	}

	blocked, err := cc.svc.BlockCompte(c.Request.Context(), compteID, input.Motif)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	solde := cc.svc.BalanceOrZero(c.Request.Context(), compteID)
	successResponse(c, http.StatusOK, "Compte bloqué avec succès", compteResource(blocked, solde))
}

func (cc *CompteController) Unblock(c *gin.Context) {
	compteID, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)

	compte, err := cc.svc.GetCompte(c.Request.Context(), compteID, false)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !policy.Allowed(actor, policy.CloseCompte, compte) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	unblocked, err := cc.svc.UnblockCompte(c.Request.Context(), compteID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	solde := cc.svc.BalanceOrZero(c.Request.Context(), compteID)
	successResponse(c, http.StatusOK, "Compte débloqué avec succès", compteResource(unblocked, solde))
}

// ListTransactions pages through a compte's ledger.
func (cc *CompteController) ListTransactions(c *gin.Context) {
	compteID, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)

	compte, err := cc.svc.GetCompte(c.Request.Context(), compteID, true)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !policy.Allowed(actor, policy.ViewTransactions, compte) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	page := bank.Page{
		Number: queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}.Normalize()

	transactions, total, err := cc.svc.ListTransactions(c.Request.Context(), compteID, page)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resources := make([]gin.H, 0, len(transactions))
	for i := range transactions {
		resources = append(resources, transactionResource(&transactions[i]))
	}
	paginatedResponse(c, "Transactions récupérées avec succès", resources, page.Number, page.Limit, total)
}

type createTransactionInput struct {
	Type         string          `json:"type" binding:"required,oneof=depot retrait transfert"`
	Montant      decimal.Decimal `json:"montant" binding:"required"`
	Destinataire *uuid.UUID      `json:"destinataire" binding:"omitempty"`
}

// CreateTransaction appends a ledger entry to the compte.
func (cc *CompteController) CreateTransaction(c *gin.Context) {
	compteID, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)

	compte, err := cc.svc.GetCompte(c.Request.Context(), compteID, false)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !policy.Allowed(actor, policy.UpdateCompte, compte) {
		errorResponse(c, http.StatusForbidden, "Action non autorisée")
		return
	}

	var input createTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationResponse(c, bindingErrors(err))
		return
	}

	entry, err := cc.svc.RecordTransaction(c.Request.Context(), compteID, input.Type, input.Montant, input.Destinataire)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	successResponse(c, http.StatusCreated, "Transaction enregistrée avec succès", transactionResource(entry))
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, "Ressource introuvable")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
