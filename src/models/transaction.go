package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionDirection string

const (
	DirectionCredit TransactionDirection = "credit"
	DirectionDebit  TransactionDirection = "debit"
)

type MatchStatus string

const (
	MatchStatusUnmatched MatchStatus = "unmatched"
	MatchStatusMatched   MatchStatus = "matched"
	MatchStatusIgnored   MatchStatus = "ignored"
)

// BankTransaction is one imported bank movement. (AccountID,
// ExternalTransactionID) is unique, the dedup key that keeps repeated syncs
// from duplicating rows. Amounts are stored as absolute minor-currency units
// with the sign folded into Direction. Rows are created by sync and mutated
// only by the matching operations; they are never deleted.
type BankTransaction struct {
	ID                    uuid.UUID            `json:"id"`
	AccountID             uuid.UUID            `json:"account_id"`
	BuildingID            int64                `json:"building_id"`
	ExternalTransactionID string               `json:"external_transaction_id"`
	Direction             TransactionDirection `json:"direction"`
	AmountCents           int64                `json:"amount_cents"`
	Description           string               `json:"description"`
	OriginalDescription   string               `json:"original_description"`
	TransactionDate       time.Time            `json:"transaction_date"`
	BookingDate           *time.Time           `json:"booking_date"`
	CounterpartyName      string               `json:"counterparty_name"`
	CounterpartyIBAN      *string              `json:"counterparty_iban"`
	MatchedApartmentID    *int64               `json:"matched_apartment_id"`
	MatchedPaymentID      *int64               `json:"matched_payment_id"`
	MatchStatus           MatchStatus          `json:"match_status"`
	CreatedAt             time.Time            `json:"created_at"`
}
