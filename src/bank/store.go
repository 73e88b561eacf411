package bank

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"predio-server/src/models"
)

// Sentinel errors Store implementations translate backend failures into.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store is the persistence port of the bank engine. The pgx implementation
// lives in src/db/sql; tests substitute an in-memory fake.
type Store interface {
	// GetConnectionByBuilding returns ErrNotFound when the building has no
	// connection row.
	GetConnectionByBuilding(ctx context.Context, buildingID int64) (*models.BankConnection, error)
	// SaveConnection upserts keyed by building id.
	SaveConnection(ctx context.Context, conn *models.BankConnection) error

	// UpsertAccount upserts keyed by external account id: mutable fields are
	// updated when the row exists, otherwise it is inserted.
	UpsertAccount(ctx context.Context, account *models.BankAccount) error
	ListAccountsByBuilding(ctx context.Context, buildingID int64) ([]models.BankAccount, error)

	// ExistingTransactionIDs returns, in a single query, the subset of
	// externalIDs already stored for the account.
	ExistingTransactionIDs(ctx context.Context, accountID uuid.UUID, externalIDs []string) (map[string]struct{}, error)
	// InsertTransactions inserts all rows atomically: either the whole set
	// commits or none of it does.
	InsertTransactions(ctx context.Context, txns []models.BankTransaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.BankTransaction, error)
	ListUnmatchedTransactions(ctx context.Context, buildingID int64) ([]models.BankTransaction, error)
	// ListUnmatchedCredits returns the unmatched credit transactions of a
	// building, the candidate set for IBAN sweeps.
	ListUnmatchedCredits(ctx context.Context, buildingID int64) ([]models.BankTransaction, error)
	UpdateTransactionMatch(ctx context.Context, id uuid.UUID, apartmentID, paymentID *int64, status models.MatchStatus) error

	// FindApartmentByIBAN resolves a normalized IBAN to an apartment within
	// the building. Returns ErrNotFound when no apartment registered it.
	FindApartmentByIBAN(ctx context.Context, buildingID int64, iban string) (int64, error)
	// AddResidentIban returns ErrDuplicate when (apartment, iban) exists.
	AddResidentIban(ctx context.Context, rib *models.ResidentIban) error
	RemoveResidentIban(ctx context.Context, apartmentID int64, iban string) error
	ListResidentIbans(ctx context.Context, buildingID int64) ([]models.ResidentIban, error)

	// GetPaymentApartment resolves the apartment a payment belongs to.
	GetPaymentApartment(ctx context.Context, paymentID int64) (int64, error)
}
