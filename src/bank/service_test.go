package bank

import (
	"context"
	"io"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"predio-server/src/aggregator"
	"predio-server/src/models"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory Store used by the engine tests. Connections are
// copied on read and write so forgetting a SaveConnection shows up.
type memStore struct {
	conns      map[int64]models.BankConnection
	accounts   map[string]models.BankAccount
	txns       []models.BankTransaction
	ribs       []models.ResidentIban
	apartments map[int64]int64 // apartment id -> building id
	payments   map[int64]int64 // payment id -> apartment id

	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		conns:      make(map[int64]models.BankConnection),
		accounts:   make(map[string]models.BankAccount),
		apartments: make(map[int64]int64),
		payments:   make(map[int64]int64),
	}
}

func (m *memStore) GetConnectionByBuilding(_ context.Context, buildingID int64) (*models.BankConnection, error) {
	conn, ok := m.conns[buildingID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := conn
	return &copied, nil
}

func (m *memStore) SaveConnection(_ context.Context, conn *models.BankConnection) error {
	m.conns[conn.BuildingID] = *conn
	return nil
}

func (m *memStore) UpsertAccount(_ context.Context, account *models.BankAccount) error {
	if existing, ok := m.accounts[account.ExternalAccountID]; ok {
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
	}
	m.accounts[account.ExternalAccountID] = *account
	return nil
}

func (m *memStore) ListAccountsByBuilding(_ context.Context, buildingID int64) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	for _, a := range m.accounts {
		if a.BuildingID == buildingID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ExternalAccountID < accounts[j].ExternalAccountID
	})
	return accounts, nil
}

func (m *memStore) ExistingTransactionIDs(_ context.Context, accountID uuid.UUID, externalIDs []string) (map[string]struct{}, error) {
	wanted := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		wanted[id] = struct{}{}
	}
	existing := make(map[string]struct{})
	for _, t := range m.txns {
		if t.AccountID != accountID {
			continue
		}
		if _, ok := wanted[t.ExternalTransactionID]; ok {
			existing[t.ExternalTransactionID] = struct{}{}
		}
	}
	return existing, nil
}

func (m *memStore) InsertTransactions(_ context.Context, txns []models.BankTransaction) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.txns = append(m.txns, txns...)
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id uuid.UUID) (*models.BankTransaction, error) {
	for _, t := range m.txns {
		if t.ID == id {
			copied := t
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListUnmatchedTransactions(_ context.Context, buildingID int64) ([]models.BankTransaction, error) {
	var txns []models.BankTransaction
	for _, t := range m.txns {
		if t.BuildingID == buildingID && t.MatchStatus == models.MatchStatusUnmatched {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (m *memStore) ListUnmatchedCredits(_ context.Context, buildingID int64) ([]models.BankTransaction, error) {
	var txns []models.BankTransaction
	for _, t := range m.txns {
		if t.BuildingID == buildingID && t.MatchStatus == models.MatchStatusUnmatched && t.Direction == models.DirectionCredit {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (m *memStore) UpdateTransactionMatch(_ context.Context, id uuid.UUID, apartmentID, paymentID *int64, status models.MatchStatus) error {
	for i := range m.txns {
		if m.txns[i].ID == id {
			m.txns[i].MatchedApartmentID = apartmentID
			m.txns[i].MatchedPaymentID = paymentID
			m.txns[i].MatchStatus = status
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) FindApartmentByIBAN(_ context.Context, buildingID int64, iban string) (int64, error) {
	for _, rib := range m.ribs {
		if rib.IBAN == iban && m.apartments[rib.ApartmentID] == buildingID {
			return rib.ApartmentID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *memStore) AddResidentIban(_ context.Context, rib *models.ResidentIban) error {
	for _, existing := range m.ribs {
		if existing.ApartmentID == rib.ApartmentID && existing.IBAN == rib.IBAN {
			return ErrDuplicate
		}
	}
	m.ribs = append(m.ribs, *rib)
	return nil
}

func (m *memStore) RemoveResidentIban(_ context.Context, apartmentID int64, iban string) error {
	for i, rib := range m.ribs {
		if rib.ApartmentID == apartmentID && rib.IBAN == iban {
			m.ribs = append(m.ribs[:i], m.ribs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) ListResidentIbans(_ context.Context, buildingID int64) ([]models.ResidentIban, error) {
	var ribs []models.ResidentIban
	for _, rib := range m.ribs {
		if m.apartments[rib.ApartmentID] == buildingID {
			ribs = append(ribs, rib)
		}
	}
	return ribs, nil
}

func (m *memStore) GetPaymentApartment(_ context.Context, paymentID int64) (int64, error) {
	apartmentID, ok := m.payments[paymentID]
	if !ok {
		return 0, ErrNotFound
	}
	return apartmentID, nil
}

// fakeAgg is a scriptable aggregator.Client.
type fakeAgg struct {
	exchangeResp aggregator.TokenResponse
	exchangeErr  error

	refreshResp  aggregator.TokenResponse
	refreshErr   error
	refreshCalls int

	accounts    []aggregator.Account
	accountsErr error

	txns    map[string][]aggregator.Transaction
	txnErrs map[string]error

	consents    []aggregator.Consent
	consentsErr error

	revokeErr   error
	revokeCalls int
}

func newFakeAgg() *fakeAgg {
	return &fakeAgg{
		exchangeResp: aggregator.TokenResponse{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 3600},
		refreshResp:  aggregator.TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 3600},
		txns:         make(map[string][]aggregator.Transaction),
		txnErrs:      make(map[string]error),
	}
}

func (f *fakeAgg) AuthURL(state string) string {
	return "https://agg.example.com/oauth/authorize?state=" + state
}

func (f *fakeAgg) ExchangeCode(_ context.Context, code string) (aggregator.TokenResponse, error) {
	if f.exchangeErr != nil {
		return aggregator.TokenResponse{}, f.exchangeErr
	}
	return f.exchangeResp, nil
}

func (f *fakeAgg) RefreshToken(_ context.Context, refreshToken string) (aggregator.TokenResponse, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return aggregator.TokenResponse{}, f.refreshErr
	}
	return f.refreshResp, nil
}

func (f *fakeAgg) GetAccounts(_ context.Context, accessToken string) ([]aggregator.Account, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeAgg) GetTransactions(_ context.Context, accessToken, externalAccountID string, from, to *time.Time) ([]aggregator.Transaction, error) {
	if err, ok := f.txnErrs[externalAccountID]; ok {
		return nil, err
	}
	return f.txns[externalAccountID], nil
}

func (f *fakeAgg) GetProviderConsents(_ context.Context, accessToken string) ([]aggregator.Consent, error) {
	if f.consentsErr != nil {
		return nil, f.consentsErr
	}
	return f.consents, nil
}

func (f *fakeAgg) RevokeConsent(_ context.Context, accessToken string) error {
	f.revokeCalls++
	return f.revokeErr
}

func newTestService(store *memStore, agg *fakeAgg) *Service {
	svc := NewService(store, agg, []byte("test-state-secret"), log.New(io.Discard, "", 0))
	svc.now = func() time.Time { return fixedNow }
	svc.states.now = svc.now
	return svc
}

// seedActiveConnection puts an active connection with a healthy token pair
// into the store.
func seedActiveConnection(store *memStore, buildingID int64) models.BankConnection {
	access := "seed-access"
	refresh := "seed-refresh"
	expiresAt := fixedNow.Add(2 * time.Hour)
	conn := models.BankConnection{
		ID:             uuid.New(),
		BuildingID:     buildingID,
		Status:         models.ConnectionStatusActive,
		AccessToken:    &access,
		RefreshToken:   &refresh,
		TokenExpiresAt: &expiresAt,
		CreatedBy:      1,
		CreatedAt:      fixedNow.Add(-24 * time.Hour),
	}
	store.conns[buildingID] = conn
	return conn
}

// seedAccount puts a synced bank account into the store.
func seedAccount(store *memStore, conn models.BankConnection, externalID string) models.BankAccount {
	account := models.BankAccount{
		ID:                uuid.New(),
		ConnectionID:      conn.ID,
		BuildingID:        conn.BuildingID,
		ExternalAccountID: externalID,
		Name:              "Conta Condominio",
		Currency:          "EUR",
	}
	store.accounts[externalID] = account
	return account
}

func creditTxn(id, amount, payerName, payerIBAN string) aggregator.Transaction {
	txn := aggregator.Transaction{
		ID:          id,
		Amount:      amount,
		Currency:    "EUR",
		Description: "transfer",
		Date:        fixedNow.AddDate(0, 0, -1),
	}
	if payerName != "" || payerIBAN != "" {
		txn.Payer = &aggregator.TransactionParty{Name: payerName, IBAN: payerIBAN}
	}
	return txn
}
