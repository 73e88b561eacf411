package bank

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predio-server/src/aggregator"
	"predio-server/src/models"
)

func TestEnsureAccessToken_FreshTokenSkipsRefresh(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	svc := newTestService(store, agg)

	// Expiry well beyond the 5-minute buffer.
	seedActiveConnection(store, 1)

	_, err := svc.SyncAccounts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, agg.refreshCalls)
}

func TestEnsureAccessToken_ImminentExpiryRefreshes(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	svc := newTestService(store, agg)

	conn := seedActiveConnection(store, 1)
	soon := fixedNow.Add(2 * time.Minute)
	conn.TokenExpiresAt = &soon
	store.conns[1] = conn

	_, err := svc.SyncAccounts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.refreshCalls)

	refreshed := store.conns[1]
	require.NotNil(t, refreshed.AccessToken)
	assert.Equal(t, "access-2", *refreshed.AccessToken)
	require.NotNil(t, refreshed.RefreshToken)
	assert.Equal(t, "refresh-2", *refreshed.RefreshToken)
	require.NotNil(t, refreshed.TokenExpiresAt)
	assert.Equal(t, fixedNow.Add(time.Hour), *refreshed.TokenExpiresAt)
	assert.Equal(t, models.ConnectionStatusActive, refreshed.Status)
}

func TestEnsureAccessToken_RefreshFailureExpiresConnection(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	agg.refreshErr = &aggregator.APIError{StatusCode: http.StatusBadRequest, Code: "invalid_grant", Message: "refresh token revoked"}
	svc := newTestService(store, agg)

	conn := seedActiveConnection(store, 1)
	soon := fixedNow.Add(2 * time.Minute)
	conn.TokenExpiresAt = &soon
	store.conns[1] = conn

	_, err := svc.SyncAccounts(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, CodeExpired, AsError(err).Code)
	assert.Equal(t, models.ConnectionStatusExpired, store.conns[1].Status)
	require.NotNil(t, store.conns[1].LastError)
}

func TestEnsureAccessToken_MissingRefreshTokenExpires(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	svc := newTestService(store, agg)

	conn := seedActiveConnection(store, 1)
	soon := fixedNow.Add(2 * time.Minute)
	conn.TokenExpiresAt = &soon
	conn.RefreshToken = nil
	store.conns[1] = conn

	_, err := svc.SyncAccounts(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, CodeExpired, AsError(err).Code)
	assert.Equal(t, 0, agg.refreshCalls)
	assert.Equal(t, models.ConnectionStatusExpired, store.conns[1].Status)
}

func TestEnsureAccessToken_MissingAccessToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newFakeAgg())

	conn := seedActiveConnection(store, 1)
	conn.AccessToken = nil
	store.conns[1] = conn

	_, err := svc.SyncAccounts(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, CodeMissingToken, AsError(err).Code)
}

func TestSyncErrorClassification(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus models.ConnectionStatus
	}{
		{
			name:       "401 expires the connection",
			err:        &aggregator.APIError{StatusCode: http.StatusUnauthorized, Message: "bad token"},
			wantCode:   CodeExpired,
			wantStatus: models.ConnectionStatusExpired,
		},
		{
			name:       "429 leaves status untouched",
			err:        &aggregator.APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"},
			wantCode:   CodeRateLimited,
			wantStatus: models.ConnectionStatusActive,
		},
		{
			name:       "500 leaves status untouched",
			err:        &aggregator.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"},
			wantCode:   CodeProviderError,
			wantStatus: models.ConnectionStatusActive,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			agg := newFakeAgg()
			agg.accountsErr = tc.err
			svc := newTestService(store, agg)
			seedActiveConnection(store, 1)

			_, err := svc.SyncAccounts(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, AsError(err).Code)
			assert.Equal(t, tc.wantStatus, store.conns[1].Status)
		})
	}
}
