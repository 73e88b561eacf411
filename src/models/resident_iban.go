package models

import (
	"time"

	"github.com/google/uuid"
)

// ResidentIban maps one apartment to one IBAN. Values are normalized (no
// whitespace, uppercase) before storage and before any lookup, and
// (apartment_id, iban) is unique.
type ResidentIban struct {
	ID          uuid.UUID `json:"id"`
	ApartmentID int64     `json:"apartment_id"`
	IBAN        string    `json:"iban"`
	Label       *string   `json:"label"`
	CreatedAt   time.Time `json:"created_at"`
}
