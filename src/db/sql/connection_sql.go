package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"predio-server/src/bank"
	"predio-server/src/models"
)

func (s *Store) GetConnectionByBuilding(ctx context.Context, buildingID int64) (*models.BankConnection, error) {
	query := `
		SELECT id, building_id, status, provider, access_token, refresh_token,
		       token_expires_at, last_sync_at, last_error, created_by, created_at, updated_at
		FROM bank_connections
		WHERE building_id = $1
	`
	var conn models.BankConnection
	err := s.pool.QueryRow(ctx, query, buildingID).Scan(
		&conn.ID, &conn.BuildingID, &conn.Status, &conn.Provider,
		&conn.AccessToken, &conn.RefreshToken, &conn.TokenExpiresAt,
		&conn.LastSyncAt, &conn.LastError, &conn.CreatedBy,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, bank.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bank connection: %w", err)
	}
	return &conn, nil
}

func (s *Store) SaveConnection(ctx context.Context, conn *models.BankConnection) error {
	query := `
		INSERT INTO bank_connections (
			id, building_id, status, provider, access_token, refresh_token,
			token_expires_at, last_sync_at, last_error, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (building_id) DO UPDATE SET
			status = EXCLUDED.status,
			provider = EXCLUDED.provider,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			last_sync_at = EXCLUDED.last_sync_at,
			last_error = EXCLUDED.last_error,
			updated_at = NOW()
	`
	_, err := s.pool.Exec(ctx, query,
		conn.ID, conn.BuildingID, conn.Status, conn.Provider,
		conn.AccessToken, conn.RefreshToken, conn.TokenExpiresAt,
		conn.LastSyncAt, conn.LastError, conn.CreatedBy,
		conn.CreatedAt, conn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save bank connection: %w", err)
	}
	return nil
}
