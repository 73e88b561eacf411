package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"predio-server/src/bank"
	"predio-server/src/models"
)

// insertChunkSize bounds how many rows go into one batched statement.
const insertChunkSize = 100

const transactionColumns = `
	id, account_id, building_id, external_transaction_id, direction,
	amount_cents, description, original_description, transaction_date,
	booking_date, counterparty_name, counterparty_iban,
	matched_apartment_id, matched_payment_id, match_status, created_at
`

func (s *Store) ExistingTransactionIDs(ctx context.Context, accountID uuid.UUID, externalIDs []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(externalIDs) == 0 {
		return existing, nil
	}

	query := `
		SELECT external_transaction_id
		FROM bank_transactions
		WHERE account_id = $1 AND external_transaction_id = ANY($2)
	`
	rows, err := s.pool.Query(ctx, query, accountID, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("query existing transaction ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transaction id: %w", err)
		}
		existing[id] = struct{}{}
	}
	return existing, rows.Err()
}

// InsertTransactions writes the rows in one database transaction, chunked
// into bounded batches. Either the whole set commits or none of it does.
func (s *Store) InsertTransactions(ctx context.Context, txns []models.BankTransaction) error {
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction batch: %w", err)
	}
	defer tx.Rollback(ctx)

	insertSQL := `
		INSERT INTO bank_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	err = forEachChunk(txns, insertChunkSize, func(chunk []models.BankTransaction) error {
		batch := &pgx.Batch{}
		for _, t := range chunk {
			batch.Queue(insertSQL,
				t.ID, t.AccountID, t.BuildingID, t.ExternalTransactionID,
				t.Direction, t.AmountCents, t.Description, t.OriginalDescription,
				t.TransactionDate, t.BookingDate, t.CounterpartyName,
				t.CounterpartyIBAN, t.MatchedApartmentID, t.MatchedPaymentID,
				t.MatchStatus, t.CreatedAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert transaction batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction batch: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*models.BankTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bank_transactions WHERE id = $1`
	var t models.BankTransaction
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.AccountID, &t.BuildingID, &t.ExternalTransactionID,
		&t.Direction, &t.AmountCents, &t.Description, &t.OriginalDescription,
		&t.TransactionDate, &t.BookingDate, &t.CounterpartyName,
		&t.CounterpartyIBAN, &t.MatchedApartmentID, &t.MatchedPaymentID,
		&t.MatchStatus, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, bank.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

func (s *Store) ListUnmatchedTransactions(ctx context.Context, buildingID int64) ([]models.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE building_id = $1 AND match_status = $2
		ORDER BY transaction_date DESC, external_transaction_id
	`
	return s.listTransactions(ctx, query, buildingID, models.MatchStatusUnmatched)
}

func (s *Store) ListUnmatchedCredits(ctx context.Context, buildingID int64) ([]models.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE building_id = $1 AND match_status = $2 AND direction = $3
		ORDER BY transaction_date DESC, external_transaction_id
	`
	return s.listTransactions(ctx, query, buildingID, models.MatchStatusUnmatched, models.DirectionCredit)
}

func (s *Store) listTransactions(ctx context.Context, query string, args ...any) ([]models.BankTransaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.BankTransaction
	for rows.Next() {
		var t models.BankTransaction
		err := rows.Scan(
			&t.ID, &t.AccountID, &t.BuildingID, &t.ExternalTransactionID,
			&t.Direction, &t.AmountCents, &t.Description, &t.OriginalDescription,
			&t.TransactionDate, &t.BookingDate, &t.CounterpartyName,
			&t.CounterpartyIBAN, &t.MatchedApartmentID, &t.MatchedPaymentID,
			&t.MatchStatus, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *Store) UpdateTransactionMatch(ctx context.Context, id uuid.UUID, apartmentID, paymentID *int64, status models.MatchStatus) error {
	query := `
		UPDATE bank_transactions
		SET matched_apartment_id = $2, matched_payment_id = $3, match_status = $4
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, apartmentID, paymentID, status)
	if err != nil {
		return fmt.Errorf("update transaction match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}
