// Package aggregator provides data types and the client interface for the
// Open Banking aggregator that exposes OAuth-based read access to bank
// accounts and transactions. Implementations may be real HTTP clients or
// stubs for testing.
package aggregator

import (
	"context"
	"time"
)

// Client is the narrow contract the bank engine consumes.
type Client interface {
	// AuthURL builds the aggregator authorization URL carrying the encoded
	// OAuth state. The user's browser is redirected here to grant consent.
	AuthURL(state string) string

	// ExchangeCode exchanges an authorization code (from the OAuth redirect)
	// for a token pair.
	ExchangeCode(ctx context.Context, code string) (TokenResponse, error)

	// RefreshToken exchanges a refresh token for a fresh token pair.
	RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error)

	// GetAccounts retrieves the accounts reachable with an access token.
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)

	// GetTransactions retrieves transactions for one account, optionally
	// bounded by an inclusive date window.
	GetTransactions(ctx context.Context, accessToken, externalAccountID string, from, to *time.Time) ([]Transaction, error)

	// GetProviderConsents lists the consents granted under an access token.
	GetProviderConsents(ctx context.Context, accessToken string) ([]Consent, error)

	// RevokeConsent revokes the consent behind an access token, invalidating it.
	RevokeConsent(ctx context.Context, accessToken string) error
}

// TokenResponse is the aggregator's token-endpoint payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AccountIdentifier is the structured identifier attached to an account.
// When present it takes precedence over the flat IBAN field.
type AccountIdentifier struct {
	IBAN string `json:"iban"`
}

// Account is one bank account as reported by the aggregator. Balances are
// decimal strings in major units.
type Account struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Identifier       *AccountIdentifier `json:"identifier"`
	IBAN             string             `json:"iban"`
	Balance          string             `json:"balance"`
	AvailableBalance string             `json:"available_balance"`
	Currency         string             `json:"currency"`
	Type             string             `json:"type"`
}

// TransactionParty is one side of a transaction (payer or payee).
type TransactionParty struct {
	Name string `json:"name"`
	IBAN string `json:"iban"`
}

// Transaction is one movement as reported by the aggregator. Amount is a
// signed decimal string in major units: positive for money coming in,
// negative for money going out.
type Transaction struct {
	ID                  string
	Amount              string
	Currency            string
	Description         string
	OriginalDescription string
	Date                time.Time
	BookingDate         *time.Time
	Payer               *TransactionParty
	Payee               *TransactionParty
}

// Consent is provider/consent metadata for an access token.
type Consent struct {
	ID           string     `json:"id"`
	ProviderName string     `json:"provider_name"`
	Status       string     `json:"status"`
	ExpiresAt    *time.Time `json:"expires_at"`
}
