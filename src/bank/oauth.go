package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"predio-server/src/models"
)

// InitiateResult carries the aggregator authorization URL the user's browser
// must be sent to, plus the signed state embedded in it.
type InitiateResult struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// CallbackResult reports the building whose connection was activated and how
// many accounts the follow-up sync picked up.
type CallbackResult struct {
	BuildingID     int64 `json:"building_id"`
	AccountsSynced int   `json:"accounts_synced"`
}

// ConnectionStatusResult is the UI-facing view of a building's bank link.
type ConnectionStatusResult struct {
	Status     models.ConnectionStatus `json:"status"`
	Provider   string                  `json:"provider"`
	LastSyncAt *string                 `json:"last_sync_at"`
	LastError  *string                 `json:"last_error"`
}

// InitiateBankConnection starts the OAuth link flow for a building. An
// existing connection blocks re-initiation only while it is active; any other
// status is treated as a reconnect and the row is reset to pending.
func (s *Service) InitiateBankConnection(ctx context.Context, buildingID, userID int64) (*InitiateResult, error) {
	conn, err := s.store.GetConnectionByBuilding(ctx, buildingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, wrapError(CodeInternal, "load bank connection", err)
	}
	if conn != nil && conn.Status == models.ConnectionStatusActive {
		return nil, newError(CodeAlreadyConnected, "building already has an active bank connection")
	}

	state, err := s.states.Encode(buildingID, userID)
	if err != nil {
		return nil, wrapError(CodeInternal, "encode oauth state", err)
	}

	now := s.now()
	if conn == nil {
		conn = &models.BankConnection{
			ID:         uuid.New(),
			BuildingID: buildingID,
			CreatedBy:  userID,
			CreatedAt:  now,
		}
	}
	conn.Status = models.ConnectionStatusPending
	conn.LastError = nil
	conn.UpdatedAt = now
	if err := s.store.SaveConnection(ctx, conn); err != nil {
		return nil, wrapError(CodeInternal, "save bank connection", err)
	}

	s.logger.Printf("INFO: Initiated bank connection for building %d by user %d", buildingID, userID)
	return &InitiateResult{AuthURL: s.agg.AuthURL(state), State: state}, nil
}

// HandleOAuthCallback completes the link flow: it validates the state,
// exchanges the code for tokens, activates the connection, and then triggers
// an account sync. The account sync is fail-soft: a successful token
// exchange keeps the connection active even if the sync step fails; syncing
// is independently retryable.
func (s *Service) HandleOAuthCallback(ctx context.Context, code, state string) (*CallbackResult, error) {
	buildingID, userID, err := s.states.Decode(state)
	if err != nil {
		return nil, err
	}

	conn, err := s.store.GetConnectionByBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(CodeNotFound, "no pending bank connection for building")
		}
		return nil, wrapError(CodeInternal, "load bank connection", err)
	}
	// Only a pending connection may be activated. A still-fresh state replayed
	// after a disconnect must not resurrect the revoked row.
	if conn.Status != models.ConnectionStatusPending {
		return nil, newError(CodeValidation, "bank connection is not awaiting authorization, restart the bank connection")
	}

	tokens, err := s.agg.ExchangeCode(ctx, code)
	if err != nil {
		msg := fmt.Sprintf("code exchange failed: %v", err)
		conn.LastError = &msg
		conn.UpdatedAt = s.now()
		if saveErr := s.store.SaveConnection(ctx, conn); saveErr != nil {
			s.logger.Printf("ERROR: Failed to record exchange failure for building %d: %v", buildingID, saveErr)
		}
		return nil, wrapError(CodeProviderError, "failed to exchange authorization code", err)
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
	conn.AccessToken = &tokens.AccessToken
	conn.RefreshToken = &tokens.RefreshToken
	conn.TokenExpiresAt = &expiresAt
	conn.Status = models.ConnectionStatusActive
	conn.LastError = nil
	conn.UpdatedAt = now

	// Provider metadata is best-effort; its failure must not abort the flow.
	if consents, cErr := s.agg.GetProviderConsents(ctx, tokens.AccessToken); cErr != nil {
		s.logger.Printf("INFO: Could not fetch provider consents for building %d: %v", buildingID, cErr)
	} else if len(consents) > 0 {
		conn.Provider = consents[0].ProviderName
	}

	if err := s.store.SaveConnection(ctx, conn); err != nil {
		return nil, wrapError(CodeInternal, "save bank connection", err)
	}
	s.logger.Printf("INFO: Bank connection activated for building %d by user %d", buildingID, userID)

	result := &CallbackResult{BuildingID: buildingID}
	if synced, err := s.SyncAccounts(ctx, buildingID); err != nil {
		s.logger.Printf("ERROR: Initial account sync failed for building %d: %v", buildingID, err)
	} else {
		result.AccountsSynced = synced
	}
	return result, nil
}

// DisconnectBank revokes the aggregator consent (best-effort), clears the
// token pair, and marks the connection revoked. The row is kept.
func (s *Service) DisconnectBank(ctx context.Context, buildingID int64) error {
	conn, err := s.store.GetConnectionByBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(CodeNotFound, "no bank connection for building")
		}
		return wrapError(CodeInternal, "load bank connection", err)
	}

	if conn.AccessToken != nil {
		if err := s.agg.RevokeConsent(ctx, *conn.AccessToken); err != nil {
			s.logger.Printf("INFO: Remote consent revocation failed for building %d: %v", buildingID, err)
		}
	}

	conn.AccessToken = nil
	conn.RefreshToken = nil
	conn.TokenExpiresAt = nil
	conn.Status = models.ConnectionStatusRevoked
	conn.UpdatedAt = s.now()
	if err := s.store.SaveConnection(ctx, conn); err != nil {
		return wrapError(CodeInternal, "save bank connection", err)
	}
	s.logger.Printf("INFO: Bank connection revoked for building %d", buildingID)
	return nil
}

// GetConnectionStatus reports the lifecycle status of a building's bank
// link; "none" when no row exists.
func (s *Service) GetConnectionStatus(ctx context.Context, buildingID int64) (*ConnectionStatusResult, error) {
	conn, err := s.store.GetConnectionByBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &ConnectionStatusResult{Status: models.ConnectionStatusNone}, nil
		}
		return nil, wrapError(CodeInternal, "load bank connection", err)
	}

	result := &ConnectionStatusResult{
		Status:    conn.Status,
		Provider:  conn.Provider,
		LastError: conn.LastError,
	}
	if conn.LastSyncAt != nil {
		formatted := conn.LastSyncAt.UTC().Format(time.RFC3339)
		result.LastSyncAt = &formatted
	}
	return result, nil
}
