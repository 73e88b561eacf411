package bank

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predio-server/src/aggregator"
	"predio-server/src/models"
)

func TestInitiateBankConnection_CreatesPendingRow(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newFakeAgg())

	result, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.AuthURL, "https://agg.example.com/oauth/authorize?state="))
	assert.NotEmpty(t, result.State)

	conn := store.conns[1]
	assert.Equal(t, models.ConnectionStatusPending, conn.Status)
	assert.Equal(t, int64(42), conn.CreatedBy)
	assert.Nil(t, conn.LastError)
}

func TestInitiateBankConnection_RejectsActive(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newFakeAgg())
	seedActiveConnection(store, 1)

	_, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyConnected, AsError(err).Code)
	assert.Equal(t, models.ConnectionStatusActive, store.conns[1].Status)
}

func TestInitiateBankConnection_ResetsNonActive(t *testing.T) {
	for _, status := range []models.ConnectionStatus{
		models.ConnectionStatusPending,
		models.ConnectionStatusExpired,
		models.ConnectionStatusRevoked,
		models.ConnectionStatusError,
	} {
		t.Run(string(status), func(t *testing.T) {
			store := newMemStore()
			svc := newTestService(store, newFakeAgg())

			conn := seedActiveConnection(store, 1)
			conn.Status = status
			lastErr := "old failure"
			conn.LastError = &lastErr
			store.conns[1] = conn

			_, err := svc.InitiateBankConnection(context.Background(), 1, 42)
			require.NoError(t, err)
			assert.Equal(t, models.ConnectionStatusPending, store.conns[1].Status)
			assert.Nil(t, store.conns[1].LastError)
		})
	}
}

func TestHandleOAuthCallback_ActivatesConnection(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	agg.consents = []aggregator.Consent{{ID: "c-1", ProviderName: "Banco Exemplo", Status: "granted"}}
	svc := newTestService(store, agg)

	initiated, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.NoError(t, err)

	result, err := svc.HandleOAuthCallback(context.Background(), "auth-code", initiated.State)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.BuildingID)

	conn := store.conns[1]
	assert.Equal(t, models.ConnectionStatusActive, conn.Status)
	require.NotNil(t, conn.AccessToken)
	assert.Equal(t, "access-1", *conn.AccessToken)
	require.NotNil(t, conn.RefreshToken)
	assert.Equal(t, "refresh-1", *conn.RefreshToken)
	require.NotNil(t, conn.TokenExpiresAt)
	assert.Equal(t, fixedNow.Add(time.Hour), *conn.TokenExpiresAt)
	assert.Equal(t, "Banco Exemplo", conn.Provider)
}

func TestHandleOAuthCallback_ConsentFetchFailureIsBestEffort(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	agg.consentsErr = errors.New("consents unavailable")
	svc := newTestService(store, agg)

	initiated, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.NoError(t, err)

	_, err = svc.HandleOAuthCallback(context.Background(), "auth-code", initiated.State)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusActive, store.conns[1].Status)
}

func TestHandleOAuthCallback_AccountSyncFailureKeepsActive(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	agg.accountsErr = &aggregator.APIError{StatusCode: http.StatusInternalServerError, Message: "down"}
	svc := newTestService(store, agg)

	initiated, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.NoError(t, err)

	result, err := svc.HandleOAuthCallback(context.Background(), "auth-code", initiated.State)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AccountsSynced)
	assert.Equal(t, models.ConnectionStatusActive, store.conns[1].Status)
}

func TestHandleOAuthCallback_ReplayAfterDisconnectIsRejected(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	svc := newTestService(store, agg)

	initiated, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.NoError(t, err)
	_, err = svc.HandleOAuthCallback(context.Background(), "auth-code", initiated.State)
	require.NoError(t, err)
	require.NoError(t, svc.DisconnectBank(context.Background(), 1))

	// The state is still inside its freshness window, but the connection is no
	// longer pending; replaying it must not re-activate the revoked row.
	_, err = svc.HandleOAuthCallback(context.Background(), "auth-code", initiated.State)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code)

	conn := store.conns[1]
	assert.Equal(t, models.ConnectionStatusRevoked, conn.Status)
	assert.Nil(t, conn.AccessToken)
	assert.Nil(t, conn.RefreshToken)
}

func TestHandleOAuthCallback_MalformedState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newFakeAgg())

	_, err := svc.HandleOAuthCallback(context.Background(), "auth-code", "not-a-state")
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code)
}

func TestHandleOAuthCallback_StaleState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newFakeAgg())

	initiated, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.NoError(t, err)

	svc.states.now = func() time.Time { return fixedNow.Add(16 * time.Minute) }
	_, err = svc.HandleOAuthCallback(context.Background(), "auth-code", initiated.State)
	require.Error(t, err)
	assert.Equal(t, CodeExpired, AsError(err).Code)
}

func TestHandleOAuthCallback_ExchangeFailureKeepsPending(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	agg.exchangeErr = &aggregator.APIError{StatusCode: http.StatusBadRequest, Code: "invalid_grant", Message: "code used"}
	svc := newTestService(store, agg)

	initiated, err := svc.InitiateBankConnection(context.Background(), 1, 42)
	require.NoError(t, err)

	_, err = svc.HandleOAuthCallback(context.Background(), "auth-code", initiated.State)
	require.Error(t, err)
	assert.Equal(t, CodeProviderError, AsError(err).Code)
	assert.Equal(t, models.ConnectionStatusPending, store.conns[1].Status)
	require.NotNil(t, store.conns[1].LastError)
}

func TestDisconnectBank_RevokesAndClearsTokens(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	svc := newTestService(store, agg)
	seedActiveConnection(store, 1)

	err := svc.DisconnectBank(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.revokeCalls)

	conn := store.conns[1]
	assert.Equal(t, models.ConnectionStatusRevoked, conn.Status)
	assert.Nil(t, conn.AccessToken)
	assert.Nil(t, conn.RefreshToken)
	assert.Nil(t, conn.TokenExpiresAt)
}

func TestDisconnectBank_RemoteRevokeFailureStillRevokes(t *testing.T) {
	store := newMemStore()
	agg := newFakeAgg()
	agg.revokeErr = errors.New("revoke endpoint down")
	svc := newTestService(store, agg)
	seedActiveConnection(store, 1)

	err := svc.DisconnectBank(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusRevoked, store.conns[1].Status)
}

func TestGetConnectionStatus(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newFakeAgg())

	t.Run("no row reports none", func(t *testing.T) {
		result, err := svc.GetConnectionStatus(context.Background(), 99)
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusNone, result.Status)
	})

	t.Run("active row", func(t *testing.T) {
		conn := seedActiveConnection(store, 1)
		lastSync := fixedNow.Add(-time.Hour)
		conn.LastSyncAt = &lastSync
		conn.Provider = "Banco Exemplo"
		store.conns[1] = conn

		result, err := svc.GetConnectionStatus(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusActive, result.Status)
		assert.Equal(t, "Banco Exemplo", result.Provider)
		require.NotNil(t, result.LastSyncAt)
		assert.Equal(t, lastSync.UTC().Format(time.RFC3339), *result.LastSyncAt)
	})
}
