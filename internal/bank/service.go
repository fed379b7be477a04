package bank

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"sunu_bank/internal/models"
)

// Store is the persistence collaborator of the lifecycle service. WithinTx
// runs fn against a transactional view of the same store; any error rolls
// the whole unit back.
type Store interface {
	Ledger
	NumeroChecker

	WithinTx(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	CreateClient(ctx context.Context, client *models.Client) error
	FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error)

	CreateCompte(ctx context.Context, compte *models.Compte) error
	SaveCompte(ctx context.Context, compte *models.Compte) error
	DeleteCompte(ctx context.Context, compte *models.Compte) error
	FindCompte(ctx context.Context, id uuid.UUID, includeClosed bool) (*models.Compte, error)
	ListComptes(ctx context.Context, filters ListFilters, page Page) ([]models.Compte, int64, error)

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, compteID uuid.UUID, page Page) ([]models.Transaction, int64, error)

	DashboardStats(ctx context.Context) (DashboardStats, error)
}

// ListFilters narrows ListComptes. Closed comptes are excluded unless
// IncludeClosed is set; callers opt in explicitly.
type ListFilters struct {
	Statut        string
	Type          string
	ClientID      *uuid.UUID
	Numero        string
	SoldePositif  bool
	DerniersJours int
	IncludeClosed bool
}

type Page struct {
	Number int
	Limit  int
}

func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

type DashboardStats struct {
	TotalUsers    int64 `json:"total_users"`
	TotalAdmins   int64 `json:"total_admins"`
	TotalClients  int64 `json:"total_clients"`
	ActiveComptes int64 `json:"active_accounts"`
}

// ClientInput either references an existing client by ID or carries the
// personal data needed to create a brand-new User+Client pair.
type ClientInput struct {
	ID         *uuid.UUID
	Titulaire  string
	NCI        string
	Email      string
	Telephone  string
	Adresse    string
	Profession string
}

type OpenCompteInput struct {
	Type         string
	SoldeInitial decimal.Decimal
	Devise       string
	Client       ClientInput
}

// UpdateClientInput applies only the fields that are non-nil.
type UpdateClientInput struct {
	Titulaire *string
	Telephone *string
	Email     *string
	NCI       *string
}

func (u UpdateClientInput) Empty() bool {
	return u.Titulaire == nil && u.Telephone == nil && u.Email == nil && u.NCI == nil
}

// Service orchestrates the account lifecycle: client resolution, numero
// generation, the atomic compte+initial-deposit pair, closure rules and the
// status state machine. All multi-step writes run inside a single store
// transaction.
type Service struct {
	store      Store
	numeros    *NumeroGenerator
	balances   *BalanceCalculator
	minDeposit decimal.Decimal
}

func NewService(store Store, numeros *NumeroGenerator, minDeposit decimal.Decimal) *Service {
	return &Service{
		store:      store,
		numeros:    numeros,
		balances:   NewBalanceCalculator(store),
		minDeposit: minDeposit,
	}
}

func (s *Service) Balance(ctx context.Context, compteID uuid.UUID) (decimal.Decimal, error) {
	return s.balances.Compute(ctx, compteID)
}

func (s *Service) BalanceOrZero(ctx context.Context, compteID uuid.UUID) decimal.Decimal {
	return s.balances.ComputeOrZero(ctx, compteID)
}

// OpenCompte creates a compte for an existing or brand-new client and records
// the opening deposit. The client/user creation, numero generation, compte
// insert and deposit insert either all persist or none do.
func (s *Service) OpenCompte(ctx context.Context, input OpenCompteInput) (*models.Compte, error) {
	if input.SoldeInitial.LessThan(s.minDeposit) {
		return nil, fmt.Errorf("%w: minimum %s", ErrMinimumDeposit, s.minDeposit)
	}
	if input.Type != models.TypeCompteCheque && input.Type != models.TypeCompteEpargne {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, input.Type)
	}

	var compte *models.Compte
	err := s.store.WithinTx(ctx, func(tx Store) error {
		client, err := s.getOrCreateClient(ctx, tx, input.Client)
		if err != nil {
			return err
		}

		numero, err := NewNumeroGenerator(tx, s.numeros.Digits, s.numeros.MaxAttempts).Generate(ctx)
		if err != nil {
			return err
		}

		compte = &models.Compte{
			ID:           uuid.New(),
			ClientID:     client.ID,
			NumeroCompte: numero,
			Type:         input.Type,
			Statut:       models.StatutCompteActif,
		}
		if err := tx.CreateCompte(ctx, compte); err != nil {
			return fmt.Errorf("create compte: %w", err)
		}

		depot := &models.Transaction{
			ID:             uuid.New(),
			CompteID:       compte.ID,
			Type:           models.TypeTransactionDepot,
			Montant:        input.SoldeInitial,
			DestinataireID: compte.ID,
		}
		if err := tx.CreateTransaction(ctx, depot); err != nil {
			return fmt.Errorf("create depot initial: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"compte_id": compte.ID,
		"numero":    compte.NumeroCompte,
		"type":      compte.Type,
	}).Info("compte ouvert")

	return s.store.FindCompte(ctx, compte.ID, false)
}

// UpdateClientInfo applies the provided fields to the User behind the compte.
// An email change also updates the login; login and email stay in sync.
func (s *Service) UpdateClientInfo(ctx context.Context, compteID uuid.UUID, input UpdateClientInput) (*models.Compte, decimal.Decimal, error) {
	if input.Empty() {
		return nil, decimal.Zero, ErrEmptyUpdate
	}

	err := s.store.WithinTx(ctx, func(tx Store) error {
		compte, err := tx.FindCompte(ctx, compteID, false)
		if err != nil {
			return err
		}
		user := compte.Client.User

		if input.Titulaire != nil {
			nom, prenom := SplitTitulaire(*input.Titulaire)
			user.Nom = nom
			user.Prenom = prenom
		}
		if input.Telephone != nil {
			user.Telephone = *input.Telephone
		}
		if input.Email != nil {
			user.Email = *input.Email
			user.Login = *input.Email
		}
		if input.NCI != nil {
			user.CNI = *input.NCI
		}
		return tx.SaveUser(ctx, &user)
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	compte, err := s.store.FindCompte(ctx, compteID, false)
	if err != nil {
		return nil, decimal.Zero, err
	}
	solde, err := s.balances.Compute(ctx, compteID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return compte, solde, nil
}

// CloseCompte is the terminal transition. The balance is re-validated inside
// the same transaction that flips the status, so a concurrent deposit cannot
// slip between the check and the write. A positive balance rejects closure;
// a second close attempt fails as a conflict.
func (s *Service) CloseCompte(ctx context.Context, compteID uuid.UUID) (*models.Compte, error) {
	var closed *models.Compte
	err := s.store.WithinTx(ctx, func(tx Store) error {
		compte, err := tx.FindCompte(ctx, compteID, true)
		if err != nil {
			return err
		}
		if compte.EstFerme() {
			return ErrAlreadyClosed
		}

		solde, err := NewBalanceCalculator(tx).Compute(ctx, compteID)
		if err != nil {
			return fmt.Errorf("verify solde before closure: %w", err)
		}
		if solde.IsPositive() {
			return fmt.Errorf("%w: solde %s", ErrPositiveBalance, solde)
		}

		now := time.Now()
		compte.Statut = models.StatutCompteFerme
		compte.DateFermeture = &now
		if err := tx.SaveCompte(ctx, compte); err != nil {
			return err
		}
		if err := tx.DeleteCompte(ctx, compte); err != nil {
			return err
		}
		closed = compte
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("compte_id", compteID).Info("compte fermé")
	return closed, nil
}

// BlockCompte moves an active compte to bloqué. The motif is mandatory.
func (s *Service) BlockCompte(ctx context.Context, compteID uuid.UUID, motif string) (*models.Compte, error) {
	motif = strings.TrimSpace(motif)
	if motif == "" {
		return nil, ErrMotifRequired
	}

	compte, err := s.store.FindCompte(ctx, compteID, false)
	if err != nil {
		return nil, err
	}
	if compte.Statut != models.StatutCompteActif {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatut, compte.Statut, models.StatutCompteBloque)
	}

	compte.Statut = models.StatutCompteBloque
	compte.MotifBlocage = &motif
	if err := s.store.SaveCompte(ctx, compte); err != nil {
		return nil, err
	}
	return compte, nil
}

// UnblockCompte reverses a blocage and clears the motif.
func (s *Service) UnblockCompte(ctx context.Context, compteID uuid.UUID) (*models.Compte, error) {
	compte, err := s.store.FindCompte(ctx, compteID, false)
	if err != nil {
		return nil, err
	}
	if compte.Statut != models.StatutCompteBloque {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatut, compte.Statut, models.StatutCompteActif)
	}

	compte.Statut = models.StatutCompteActif
	compte.MotifBlocage = nil
	if err := s.store.SaveCompte(ctx, compte); err != nil {
		return nil, err
	}
	return compte, nil
}

func (s *Service) GetCompte(ctx context.Context, compteID uuid.UUID, includeClosed bool) (*models.Compte, error) {
	return s.store.FindCompte(ctx, compteID, includeClosed)
}

func (s *Service) ListComptes(ctx context.Context, filters ListFilters, page Page) ([]models.Compte, int64, error) {
	return s.store.ListComptes(ctx, filters, page.Normalize())
}

func (s *Service) ListTransactions(ctx context.Context, compteID uuid.UUID, page Page) ([]models.Transaction, int64, error) {
	if _, err := s.store.FindCompte(ctx, compteID, true); err != nil {
		return nil, 0, err
	}
	return s.store.ListTransactions(ctx, compteID, page.Normalize())
}

// RecordTransaction appends a ledger entry. Money cannot move on a blocked or
// closed compte; retraits and transferts cannot overdraw; a transfert is one
// row owned by the source with the credited compte as destinataire.
func (s *Service) RecordTransaction(ctx context.Context, compteID uuid.UUID, txType string, montant decimal.Decimal, destinataireID *uuid.UUID) (*models.Transaction, error) {
	if !montant.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var entry *models.Transaction
	err := s.store.WithinTx(ctx, func(tx Store) error {
		compte, err := tx.FindCompte(ctx, compteID, true)
		if err != nil {
			return err
		}
		if compte.EstFerme() {
			return ErrCompteFerme
		}
		if compte.EstBloque() {
			return ErrCompteBloque
		}

		destinataire := compteID
		switch txType {
		case models.TypeTransactionDepot:
			// destinataire stays self
		case models.TypeTransactionRetrait:
			solde, err := NewBalanceCalculator(tx).Compute(ctx, compteID)
			if err != nil {
				return err
			}
			if solde.LessThan(montant) {
				return fmt.Errorf("%w: solde %s", ErrInsufficient, solde)
			}
		case models.TypeTransactionTransfert:
			if destinataireID == nil {
				return fmt.Errorf("%w: destinataire requis", ErrInvalidType)
			}
			if *destinataireID == compteID {
				return ErrSelfTransfer
			}
			dest, err := tx.FindCompte(ctx, *destinataireID, false)
			if err != nil {
				return err
			}
			if dest.EstBloque() {
				return ErrCompteBloque
			}
			solde, err := NewBalanceCalculator(tx).Compute(ctx, compteID)
			if err != nil {
				return err
			}
			if solde.LessThan(montant) {
				return fmt.Errorf("%w: solde %s", ErrInsufficient, solde)
			}
			destinataire = *destinataireID
		default:
			return fmt.Errorf("%w: %q", ErrInvalidType, txType)
		}

		entry = &models.Transaction{
			ID:             uuid.New(),
			CompteID:       compteID,
			Type:           txType,
			Montant:        montant,
			DestinataireID: destinataire,
		}
		return tx.CreateTransaction(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	return s.store.DashboardStats(ctx)
}

func (s *Service) getOrCreateClient(ctx context.Context, tx Store, input ClientInput) (*models.Client, error) {
	if input.ID != nil {
		client, err := tx.FindClient(ctx, *input.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, *input.ID)
		}
		return client, nil
	}

	nom, prenom := SplitTitulaire(input.Titulaire)

	// Self-service authentication is out of scope for account opening: the
	// new user gets a random credential that is never returned to the caller.
	password, err := randomCredential()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	user := &models.User{
		ID:            uuid.New(),
		Nom:           nom,
		Prenom:        prenom,
		Login:         input.Email,
		Email:         input.Email,
		Telephone:     input.Telephone,
		CNI:           input.NCI,
		Adresse:       input.Adresse,
		Sexe:          "Homme",
		Code:          shortCode(),
		Statut:        models.StatutUserActif,
		Role:          models.RoleClient,
		Permissions:   []string{models.PermCompteRead, models.PermCompteWrite, models.PermTransactionRead},
		DateNaissance: time.Now().AddDate(-25, 0, 0),
		IsVerified:    true,
		Password:      string(hash),
	}
	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	profession := input.Profession
	if profession == "" {
		profession = "Non spécifiée"
	}
	client := &models.Client{
		ID:         uuid.New(),
		UserID:     user.ID,
		Profession: profession,
	}
	if err := tx.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	client.User = *user
	return client, nil
}

// SplitTitulaire splits a full name on the first whitespace boundary into
// nom and prenom. A single-word name leaves prenom empty.
func SplitTitulaire(titulaire string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(titulaire), " ", 2)
	if len(parts) == 2 {
		return parts[0], strings.TrimSpace(parts[1])
	}
	return parts[0], ""
}

func randomCredential() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random credential: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func shortCode() string {
	buf := make([]byte, 3)
	rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}
