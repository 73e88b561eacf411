package models

import (
	"time"

	"github.com/google/uuid"
)

// BankAccount mirrors one account at the aggregator. Keyed by the external
// account id so repeated syncs update the same row. Balances are integer
// minor-currency units (cents).
type BankAccount struct {
	ID                uuid.UUID  `json:"id"`
	ConnectionID      uuid.UUID  `json:"connection_id"`
	BuildingID        int64      `json:"building_id"`
	ExternalAccountID string     `json:"external_account_id"`
	Name              string     `json:"name"`
	IBAN              *string    `json:"iban"`
	BalanceCents      int64      `json:"balance_cents"`
	AvailableCents    int64      `json:"available_cents"`
	Currency          string     `json:"currency"`
	AccountType       string     `json:"account_type"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
