package models

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	// ConnectionStatusNone is reported when no connection row exists; it is
	// never stored.
	ConnectionStatusNone    ConnectionStatus = "none"
	ConnectionStatusPending ConnectionStatus = "pending"
	ConnectionStatusActive  ConnectionStatus = "active"
	ConnectionStatusExpired ConnectionStatus = "expired"
	ConnectionStatusRevoked ConnectionStatus = "revoked"
	ConnectionStatusError   ConnectionStatus = "error"
)

// BankConnection is the building-level record of an Open Banking link,
// including the token pair and lifecycle status. One per building; rows are
// never hard-deleted; disconnect clears the tokens and flips the status.
type BankConnection struct {
	ID             uuid.UUID        `json:"id"`
	BuildingID     int64            `json:"building_id"`
	Status         ConnectionStatus `json:"status"`
	Provider       string           `json:"provider"`
	AccessToken    *string          `json:"-"`
	RefreshToken   *string          `json:"-"`
	TokenExpiresAt *time.Time       `json:"token_expires_at"`
	LastSyncAt     *time.Time       `json:"last_sync_at"`
	LastError      *string          `json:"last_error"`
	CreatedBy      int64            `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
