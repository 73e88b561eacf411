package db

import (
	"context"
	"fmt"

	"predio-server/src/models"
)

func (s *Store) UpsertAccount(ctx context.Context, account *models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (
			id, connection_id, building_id, external_account_id, name, iban,
			balance_cents, available_cents, currency, account_type, last_sync_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (external_account_id) DO UPDATE SET
			name = EXCLUDED.name,
			iban = EXCLUDED.iban,
			balance_cents = EXCLUDED.balance_cents,
			available_cents = EXCLUDED.available_cents,
			currency = EXCLUDED.currency,
			account_type = EXCLUDED.account_type,
			last_sync_at = EXCLUDED.last_sync_at,
			updated_at = NOW()
	`
	_, err := s.pool.Exec(ctx, query,
		account.ID, account.ConnectionID, account.BuildingID,
		account.ExternalAccountID, account.Name, account.IBAN,
		account.BalanceCents, account.AvailableCents, account.Currency,
		account.AccountType, account.LastSyncAt,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert bank account: %w", err)
	}
	return nil
}

func (s *Store) ListAccountsByBuilding(ctx context.Context, buildingID int64) ([]models.BankAccount, error) {
	query := `
		SELECT id, connection_id, building_id, external_account_id, name, iban,
		       balance_cents, available_cents, currency, account_type, last_sync_at,
		       created_at, updated_at
		FROM bank_accounts
		WHERE building_id = $1
		ORDER BY external_account_id
	`
	rows, err := s.pool.Query(ctx, query, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.BankAccount
	for rows.Next() {
		var a models.BankAccount
		err := rows.Scan(
			&a.ID, &a.ConnectionID, &a.BuildingID, &a.ExternalAccountID,
			&a.Name, &a.IBAN, &a.BalanceCents, &a.AvailableCents,
			&a.Currency, &a.AccountType, &a.LastSyncAt,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
