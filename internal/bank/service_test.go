package bank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"sunu_bank/internal/models"
)

// memStore is an in-memory bank.Store. WithinTx snapshots the whole state and
// restores it when fn fails, mimicking a rollback.
type memStore struct {
	users   map[uuid.UUID]models.User
	clients map[uuid.UUID]models.Client
	comptes map[uuid.UUID]models.Compte
	deleted map[uuid.UUID]bool
	txs     []models.Transaction

	failCreateTransaction bool
	failLedger            bool
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uuid.UUID]models.User{},
		clients: map[uuid.UUID]models.Client{},
		comptes: map[uuid.UUID]models.Compte{},
		deleted: map[uuid.UUID]bool{},
	}
}

func (m *memStore) snapshot() memStore {
	snap := memStore{
		users:                 map[uuid.UUID]models.User{},
		clients:               map[uuid.UUID]models.Client{},
		comptes:               map[uuid.UUID]models.Compte{},
		deleted:               map[uuid.UUID]bool{},
		txs:                   append([]models.Transaction(nil), m.txs...),
		failCreateTransaction: m.failCreateTransaction,
		failLedger:            m.failLedger,
	}
	for k, v := range m.users {
		snap.users[k] = v
	}
	for k, v := range m.clients {
		snap.clients[k] = v
	}
	for k, v := range m.comptes {
		snap.comptes[k] = v
	}
	for k, v := range m.deleted {
		snap.deleted[k] = v
	}
	return snap
}

func (m *memStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		*m = snap
		return err
	}
	return nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Telephone == user.Telephone || existing.Login == user.Login {
			return ErrConflict
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) SaveUser(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) CreateClient(ctx context.Context, client *models.Client) error {
	m.clients[client.ID] = *client
	return nil
}

func (m *memStore) FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	client.User = m.users[client.UserID]
	return &client, nil
}

func (m *memStore) CreateCompte(ctx context.Context, compte *models.Compte) error {
	for _, existing := range m.comptes {
		if existing.NumeroCompte == compte.NumeroCompte {
			return ErrConflict
		}
	}
	m.comptes[compte.ID] = *compte
	return nil
}

func (m *memStore) SaveCompte(ctx context.Context, compte *models.Compte) error {
	if _, ok := m.comptes[compte.ID]; !ok {
		return ErrNotFound
	}
	m.comptes[compte.ID] = *compte
	return nil
}

func (m *memStore) DeleteCompte(ctx context.Context, compte *models.Compte) error {
	m.deleted[compte.ID] = true
	return nil
}

func (m *memStore) FindCompte(ctx context.Context, id uuid.UUID, includeClosed bool) (*models.Compte, error) {
	compte, ok := m.comptes[id]
	if !ok || (m.deleted[id] && !includeClosed) {
		return nil, ErrNotFound
	}
	client := m.clients[compte.ClientID]
	client.User = m.users[client.UserID]
	compte.Client = client
	return &compte, nil
}

func (m *memStore) NumeroExists(ctx context.Context, numero string) (bool, error) {
	for _, compte := range m.comptes {
		if compte.NumeroCompte == numero {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListComptes(ctx context.Context, filters ListFilters, page Page) ([]models.Compte, int64, error) {
	var out []models.Compte
	for id, compte := range m.comptes {
		if m.deleted[id] && !filters.IncludeClosed && filters.Statut != models.StatutCompteFerme {
			continue
		}
		if filters.Statut != "" && compte.Statut != filters.Statut {
			continue
		}
		if filters.Type != "" && compte.Type != filters.Type {
			continue
		}
		if filters.ClientID != nil && compte.ClientID != *filters.ClientID {
			continue
		}
		if filters.Numero != "" && !strings.Contains(compte.NumeroCompte, filters.Numero) {
			continue
		}
		out = append(out, compte)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if m.failCreateTransaction {
		return errors.New("insert transaction failed")
	}
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *memStore) LedgerEntries(ctx context.Context, compteID uuid.UUID) ([]models.Transaction, error) {
	if m.failLedger {
		return nil, errors.New("ledger unreadable")
	}
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.CompteID == compteID || (tx.Type == models.TypeTransactionTransfert && tx.DestinataireID == compteID) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) ListTransactions(ctx context.Context, compteID uuid.UUID, page Page) ([]models.Transaction, int64, error) {
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.CompteID == compteID {
			out = append(out, tx)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memStore) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	for _, user := range m.users {
		stats.TotalUsers++
		switch user.Role {
		case models.RoleAdmin:
			stats.TotalAdmins++
		case models.RoleClient:
			stats.TotalClients++
		}
	}
	for id, compte := range m.comptes {
		if !m.deleted[id] && compte.Statut == models.StatutCompteActif {
			stats.ActiveComptes++
		}
	}
	return stats, nil
}

func newTestService(store *memStore) *Service {
	numeros := NewNumeroGenerator(store, 8, 10)
	return NewService(store, numeros, decimal.NewFromInt(10000))
}

func openInput() OpenCompteInput {
	return OpenCompteInput{
		Type:         models.TypeCompteEpargne,
		SoldeInitial: decimal.NewFromInt(10000),
		Devise:       "FCFA",
		Client: ClientInput{
			Titulaire: "Jean Dupont",
			NCI:       "AB123456789",
			Email:     "jean@x.com",
			Telephone: "+221771234567",
			Adresse:   "Dakar",
		},
	}
}

func TestOpenCompteCreatesClientAndInitialDeposit(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	require.Equal(t, models.StatutCompteActif, compte.Statut)
	require.Equal(t, models.TypeCompteEpargne, compte.Type)
	require.Regexp(t, `^C\d{8}$`, compte.NumeroCompte)

	require.Len(t, store.users, 1)
	require.Len(t, store.clients, 1)
	for _, user := range store.users {
		require.Equal(t, "Jean", user.Nom)
		require.Equal(t, "Dupont", user.Prenom)
		require.Equal(t, "jean@x.com", user.Login)
		require.Equal(t, models.RoleClient, user.Role)
		require.NotEmpty(t, user.Password, "new users must get a credential")
		require.NotEqual(t, "Jean", user.Password)
	}

	require.Len(t, store.txs, 1)
	depot := store.txs[0]
	require.Equal(t, models.TypeTransactionDepot, depot.Type)
	require.Equal(t, compte.ID, depot.CompteID)
	require.Equal(t, compte.ID, depot.DestinataireID)
	require.True(t, depot.Montant.Equal(decimal.NewFromInt(10000)))

	solde, err := svc.Balance(context.Background(), compte.ID)
	require.NoError(t, err)
	require.True(t, solde.Equal(decimal.NewFromInt(10000)))
}

func TestOpenCompteBelowMinimumRejectedBeforeAnyWrite(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	input := openInput()
	input.SoldeInitial = decimal.NewFromInt(9999)

	_, err := svc.OpenCompte(context.Background(), input)
	require.ErrorIs(t, err, ErrMinimumDeposit)
	require.Empty(t, store.users)
	require.Empty(t, store.clients)
	require.Empty(t, store.comptes)
	require.Empty(t, store.txs)
}

func TestOpenCompteUnknownClientRef(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	unknown := uuid.New()
	input := openInput()
	input.Client = ClientInput{ID: &unknown}

	_, err := svc.OpenCompte(context.Background(), input)
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestOpenCompteExistingClientSkipsUserCreation(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	first, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	input := openInput()
	input.Client = ClientInput{ID: &first.ClientID}
	second, err := svc.OpenCompte(context.Background(), input)
	require.NoError(t, err)

	require.Equal(t, first.ClientID, second.ClientID)
	require.Len(t, store.users, 1)
	require.Len(t, store.comptes, 2)
}

func TestOpenCompteRollsBackWhenDepositFails(t *testing.T) {
	store := newMemStore()
	store.failCreateTransaction = true
	svc := newTestService(store)

	_, err := svc.OpenCompte(context.Background(), openInput())
	require.Error(t, err)

	// nothing partial may survive: no orphan user, client or compte
	require.Empty(t, store.users)
	require.Empty(t, store.clients)
	require.Empty(t, store.comptes)
	require.Empty(t, store.txs)
}

func TestCloseCompteRejectsPositiveBalance(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	_, err = svc.CloseCompte(context.Background(), compte.ID)
	require.ErrorIs(t, err, ErrPositiveBalance)

	kept := store.comptes[compte.ID]
	require.Equal(t, models.StatutCompteActif, kept.Statut)
	require.Nil(t, kept.DateFermeture)
	require.False(t, store.deleted[compte.ID])
}

func TestCloseCompteZeroBalanceSucceedsOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	_, err = svc.RecordTransaction(context.Background(), compte.ID, models.TypeTransactionRetrait, decimal.NewFromInt(10000), nil)
	require.NoError(t, err)

	closed, err := svc.CloseCompte(context.Background(), compte.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatutCompteFerme, closed.Statut)
	require.NotNil(t, closed.DateFermeture)
	require.True(t, store.deleted[compte.ID], "closed compte must leave default views")

	_, err = svc.CloseCompte(context.Background(), compte.ID)
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestUpdateClientInfoEmptyRejected(t *testing.T) {
	svc := newTestService(newMemStore())
	_, _, err := svc.UpdateClientInfo(context.Background(), uuid.New(), UpdateClientInput{})
	require.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestUpdateClientInfoSingleFieldLeavesOthersUntouched(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	telephone := "+221781234567"
	_, solde, err := svc.UpdateClientInfo(context.Background(), compte.ID, UpdateClientInput{Telephone: &telephone})
	require.NoError(t, err)
	require.True(t, solde.Equal(decimal.NewFromInt(10000)), "balance must be recomputed")

	for _, user := range store.users {
		require.Equal(t, telephone, user.Telephone)
		require.Equal(t, "Jean", user.Nom)
		require.Equal(t, "jean@x.com", user.Email)
		require.Equal(t, "jean@x.com", user.Login)
	}
}

func TestUpdateClientInfoEmailSyncsLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	email := "jean.dupont@y.com"
	_, _, err = svc.UpdateClientInfo(context.Background(), compte.ID, UpdateClientInput{Email: &email})
	require.NoError(t, err)

	for _, user := range store.users {
		require.Equal(t, email, user.Email)
		require.Equal(t, email, user.Login)
	}
}

func TestRecordTransfertSingleRowMovesBothBalances(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	source, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	destInput := openInput()
	destInput.Client.Email = "awa@x.com"
	destInput.Client.Telephone = "+221761234567"
	destInput.Client.NCI = "CD987654321"
	destInput.Client.Titulaire = "Awa Ndiaye"
	dest, err := svc.OpenCompte(context.Background(), destInput)
	require.NoError(t, err)

	_, err = svc.RecordTransaction(context.Background(), source.ID, models.TypeTransactionTransfert, decimal.NewFromInt(3000), &dest.ID)
	require.NoError(t, err)

	// exactly one transfert row in the ledger
	var transferts int
	for _, tx := range store.txs {
		if tx.Type == models.TypeTransactionTransfert {
			transferts++
		}
	}
	require.Equal(t, 1, transferts)

	sourceSolde, err := svc.Balance(context.Background(), source.ID)
	require.NoError(t, err)
	require.True(t, sourceSolde.Equal(decimal.NewFromInt(7000)), "got %s", sourceSolde)

	destSolde, err := svc.Balance(context.Background(), dest.ID)
	require.NoError(t, err)
	require.True(t, destSolde.Equal(decimal.NewFromInt(13000)), "got %s", destSolde)
}

func TestRecordTransactionRules(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	_, err = svc.RecordTransaction(context.Background(), compte.ID, models.TypeTransactionRetrait, decimal.NewFromInt(20000), nil)
	require.ErrorIs(t, err, ErrInsufficient)

	_, err = svc.RecordTransaction(context.Background(), compte.ID, models.TypeTransactionDepot, decimal.Zero, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordTransaction(context.Background(), compte.ID, models.TypeTransactionTransfert, decimal.NewFromInt(100), &compte.ID)
	require.ErrorIs(t, err, ErrSelfTransfer)

	_, err = svc.RecordTransaction(context.Background(), compte.ID, "virement", decimal.NewFromInt(100), nil)
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestBlockedCompteRejectsMovement(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	_, err = svc.BlockCompte(context.Background(), compte.ID, "")
	require.ErrorIs(t, err, ErrMotifRequired)

	blocked, err := svc.BlockCompte(context.Background(), compte.ID, "documents manquants")
	require.NoError(t, err)
	require.Equal(t, models.StatutCompteBloque, blocked.Statut)
	require.NotNil(t, blocked.MotifBlocage)

	_, err = svc.RecordTransaction(context.Background(), compte.ID, models.TypeTransactionDepot, decimal.NewFromInt(100), nil)
	require.ErrorIs(t, err, ErrCompteBloque)

	unblocked, err := svc.UnblockCompte(context.Background(), compte.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatutCompteActif, unblocked.Statut)
	require.Nil(t, unblocked.MotifBlocage)

	_, err = svc.RecordTransaction(context.Background(), compte.ID, models.TypeTransactionDepot, decimal.NewFromInt(100), nil)
	require.NoError(t, err)
}

func TestListComptesExcludesClosedByDefault(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	compte, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)
	_, err = svc.RecordTransaction(context.Background(), compte.ID, models.TypeTransactionRetrait, decimal.NewFromInt(10000), nil)
	require.NoError(t, err)
	_, err = svc.CloseCompte(context.Background(), compte.ID)
	require.NoError(t, err)

	visible, _, err := svc.ListComptes(context.Background(), ListFilters{}, Page{})
	require.NoError(t, err)
	require.Empty(t, visible)

	all, _, err := svc.ListComptes(context.Background(), ListFilters{IncludeClosed: true}, Page{})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDashboardCounts(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.OpenCompte(context.Background(), openInput())
	require.NoError(t, err)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalUsers)
	require.EqualValues(t, 1, stats.TotalClients)
	require.EqualValues(t, 0, stats.TotalAdmins)
	require.EqualValues(t, 1, stats.ActiveComptes)
}
