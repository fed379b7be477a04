package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"sunu_bank/internal/bank"
	"sunu_bank/internal/models"
)

// Store is the gorm-backed implementation of bank.Store.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn against a transactional view of the store. Returning an
// error rolls back every write made through that view.
func (s *Store) WithinTx(ctx context.Context, fn func(bank.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Save(user).Error)
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("login = ?", login).Preload("Client").First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	return translate(s.db.WithContext(ctx).Create(client).Error)
}

func (s *Store) FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).Preload("User").First(&client, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (s *Store) CreateCompte(ctx context.Context, compte *models.Compte) error {
	return translate(s.db.WithContext(ctx).Create(compte).Error)
}

func (s *Store) SaveCompte(ctx context.Context, compte *models.Compte) error {
	return translate(s.db.WithContext(ctx).Unscoped().Save(compte).Error)
}

// DeleteCompte soft-deletes: the row stays retrievable with includeClosed.
func (s *Store) DeleteCompte(ctx context.Context, compte *models.Compte) error {
	return translate(s.db.WithContext(ctx).Delete(compte).Error)
}

func (s *Store) FindCompte(ctx context.Context, id uuid.UUID, includeClosed bool) (*models.Compte, error) {
	query := s.db.WithContext(ctx)
	if includeClosed {
		query = query.Unscoped()
	}
	var compte models.Compte
	err := query.Preload("Client").Preload("Client.User").First(&compte, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &compte, nil
}

// NumeroExists checks the full numero space, closed comptes included: a
// numero is immutable and never reassigned.
func (s *Store) NumeroExists(ctx context.Context, numero string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Compte{}).
		Where("numero_compte = ?", numero).Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *Store) ListComptes(ctx context.Context, filters bank.ListFilters, page bank.Page) ([]models.Compte, int64, error) {
	query := s.applyFilters(s.db.WithContext(ctx).Model(&models.Compte{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var comptes []models.Compte
	err := query.Preload("Client").Preload("Client.User").
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&comptes).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return comptes, total, nil
}

func (s *Store) applyFilters(query *gorm.DB, filters bank.ListFilters) *gorm.DB {
	if filters.IncludeClosed || filters.Statut == models.StatutCompteFerme {
		query = query.Unscoped()
	}
	if filters.Statut != "" {
		query = query.Where("statut = ?", filters.Statut)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.Numero != "" {
		query = query.Where("numero_compte LIKE ?", "%"+filters.Numero+"%")
	}
	if filters.SoldePositif {
		query = query.Where(`comptes.id IN (
			SELECT cid FROM (
				SELECT compte_id AS cid,
				       CASE WHEN type = 'depot' THEN montant ELSE -montant END AS delta
				FROM transactions
				UNION ALL
				SELECT destinataire_id AS cid, montant AS delta
				FROM transactions WHERE type = 'transfert'
			) AS deltas GROUP BY cid HAVING SUM(delta) > 0
		)`)
	}
	if filters.DerniersJours > 0 {
		cutoff := time.Now().AddDate(0, 0, -filters.DerniersJours)
		query = query.Where("comptes.created_at >= ?", cutoff)
	}
	return query
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return translate(s.db.WithContext(ctx).Create(tx).Error)
}

// LedgerEntries returns every row touching the compte: the ones it owns plus
// transferts credited to it.
func (s *Store) LedgerEntries(ctx context.Context, compteID uuid.UUID) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := s.db.WithContext(ctx).
		Where("compte_id = ? OR (type = ? AND destinataire_id = ?)",
			compteID, models.TypeTransactionTransfert, compteID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (s *Store) ListTransactions(ctx context.Context, compteID uuid.UUID, page bank.Page) ([]models.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("compte_id = ?", compteID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var transactions []models.Transaction
	err := query.Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return transactions, total, nil
}

func (s *Store) DashboardStats(ctx context.Context) (bank.DashboardStats, error) {
	var stats bank.DashboardStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return stats, translate(err)
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&stats.TotalAdmins).Error; err != nil {
		return stats, translate(err)
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleClient).Count(&stats.TotalClients).Error; err != nil {
		return stats, translate(err)
	}
	if err := db.Model(&models.Compte{}).Where("statut = ?", models.StatutCompteActif).Count(&stats.ActiveComptes).Error; err != nil {
		return stats, translate(err)
	}
	return stats, nil
}

// translate maps driver errors onto the bank sentinels so callers can use
// errors.Is without importing gorm or pq.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return bank.ErrNotFound
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", bank.ErrConflict, pgErr.Constraint)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return bank.ErrConflict
	}
	return err
}
