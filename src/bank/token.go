package bank

import (
	"context"
	"fmt"
	"time"

	"predio-server/src/aggregator"
	"predio-server/src/models"
)

// refreshBuffer is how close to expiry a token may get before a refresh is
// forced. The buffer avoids races where a token expires mid-request.
const refreshBuffer = 5 * time.Minute

// ensureAccessToken resolves a valid access token for the connection,
// refreshing it when expiry is imminent. A failed refresh drives the
// connection to expired and surfaces a reconnect-required error.
func (s *Service) ensureAccessToken(ctx context.Context, conn *models.BankConnection) (string, error) {
	if conn.Status != models.ConnectionStatusActive {
		return "", newError(CodeNotActive, "bank connection is not active")
	}
	if conn.AccessToken == nil {
		return "", newError(CodeMissingToken, "bank connection has no access token")
	}

	if conn.TokenExpiresAt == nil || conn.TokenExpiresAt.After(s.now().Add(refreshBuffer)) {
		return *conn.AccessToken, nil
	}

	if conn.RefreshToken == nil {
		s.markExpired(ctx, conn, "access token expired and no refresh token is stored")
		return "", newError(CodeExpired, "bank connection expired, reconnect required")
	}

	tokens, err := s.agg.RefreshToken(ctx, *conn.RefreshToken)
	if err != nil {
		s.markExpired(ctx, conn, fmt.Sprintf("token refresh failed: %v", err))
		return "", wrapError(CodeExpired, "bank connection expired, reconnect required", err)
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
	conn.AccessToken = &tokens.AccessToken
	conn.RefreshToken = &tokens.RefreshToken
	conn.TokenExpiresAt = &expiresAt
	conn.UpdatedAt = now
	if err := s.store.SaveConnection(ctx, conn); err != nil {
		return "", wrapError(CodeInternal, "save refreshed tokens", err)
	}
	s.logger.Printf("INFO: Refreshed aggregator token for building %d", conn.BuildingID)
	return tokens.AccessToken, nil
}

func (s *Service) markExpired(ctx context.Context, conn *models.BankConnection, reason string) {
	conn.Status = models.ConnectionStatusExpired
	conn.LastError = &reason
	conn.UpdatedAt = s.now()
	if err := s.store.SaveConnection(ctx, conn); err != nil {
		s.logger.Printf("ERROR: Failed to mark connection expired for building %d: %v", conn.BuildingID, err)
	}
	s.logger.Printf("ERROR: Bank connection expired for building %d: %s", conn.BuildingID, reason)
}

// classifySyncError maps an aggregator failure during a sync call onto the
// connection state machine. Auth errors expire the connection; rate limits
// and provider outages leave the persisted status untouched so the UI can
// tell "try again later" apart from "reconnect".
func (s *Service) classifySyncError(ctx context.Context, conn *models.BankConnection, err error) *Error {
	switch {
	case aggregator.IsAuthError(err):
		s.markExpired(ctx, conn, fmt.Sprintf("aggregator rejected credentials: %v", err))
		return wrapError(CodeExpired, "bank authorization expired, reconnect required", err)
	case aggregator.IsRateLimited(err):
		s.logger.Printf("INFO: Aggregator rate limited for building %d: %v", conn.BuildingID, err)
		return wrapError(CodeRateLimited, "aggregator rate limited, try again later", err)
	case aggregator.IsServerError(err):
		s.logger.Printf("ERROR: Aggregator unavailable for building %d: %v", conn.BuildingID, err)
		return wrapError(CodeProviderError, "aggregator unavailable, try again later", err)
	default:
		msg := fmt.Sprintf("sync failed: %v", err)
		conn.Status = models.ConnectionStatusError
		conn.LastError = &msg
		conn.UpdatedAt = s.now()
		if saveErr := s.store.SaveConnection(ctx, conn); saveErr != nil {
			s.logger.Printf("ERROR: Failed to record sync failure for building %d: %v", conn.BuildingID, saveErr)
		}
		return wrapError(CodeInternal, "bank sync failed", err)
	}
}
