package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"predio-server/src/aggregator"
	"predio-server/src/models"
	"predio-server/src/util"
)

// SyncResult aggregates one transaction-sync run across a building's
// accounts.
type SyncResult struct {
	Synced         int      `json:"synced"`
	Matched        int      `json:"matched"`
	FailedAccounts []string `json:"failed_accounts"`
}

// SyncTransactions imports new transactions for every account of the
// building, deduplicating against already-stored rows and matching incoming
// credits to apartments by counterparty IBAN. Re-running it against unchanged
// aggregator data inserts nothing.
//
// Accounts are processed sequentially; a failure on one account is recorded
// and the rest are still attempted, except auth errors, which expire the
// connection and abort the whole run. Already-committed accounts stay
// committed either way.
func (s *Service) SyncTransactions(ctx context.Context, buildingID int64, from, to *time.Time) (*SyncResult, error) {
	conn, err := s.store.GetConnectionByBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(CodeNotFound, "no bank connection for building")
		}
		return nil, wrapError(CodeInternal, "load bank connection", err)
	}

	token, err := s.ensureAccessToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.ListAccountsByBuilding(ctx, buildingID)
	if err != nil {
		return nil, wrapError(CodeInternal, "list bank accounts", err)
	}

	result := &SyncResult{}
	for _, account := range accounts {
		inserted, matched, err := s.syncAccountTransactions(ctx, token, conn, account, from, to)
		if err != nil {
			if aggregator.IsAuthError(err) {
				return nil, s.classifySyncError(ctx, conn, err)
			}
			s.logger.Printf("ERROR: Transaction sync failed for account %s (building %d): %v", account.ExternalAccountID, buildingID, err)
			result.FailedAccounts = append(result.FailedAccounts, account.ExternalAccountID)
			continue
		}
		result.Synced += inserted
		result.Matched += matched
	}

	s.logger.Printf("INFO: Synced %d transactions (%d matched, %d accounts failed) for building %d",
		result.Synced, result.Matched, len(result.FailedAccounts), buildingID)
	return result, nil
}

// syncAccountTransactions imports one account's new transactions inside a
// single atomic batch.
func (s *Service) syncAccountTransactions(ctx context.Context, token string, conn *models.BankConnection, account models.BankAccount, from, to *time.Time) (inserted, matched int, err error) {
	remote, err := s.agg.GetTransactions(ctx, token, account.ExternalAccountID, from, to)
	if err != nil {
		return 0, 0, err
	}
	if len(remote) == 0 {
		return 0, 0, nil
	}

	// One query for the whole batch, not one per transaction.
	externalIDs := make([]string, 0, len(remote))
	for _, txn := range remote {
		externalIDs = append(externalIDs, txn.ID)
	}
	existing, err := s.store.ExistingTransactionIDs(ctx, account.ID, externalIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("query existing transactions: %w", err)
	}

	now := s.now()
	rows := make([]models.BankTransaction, 0, len(remote))
	for _, txn := range remote {
		if _, ok := existing[txn.ID]; ok {
			continue
		}

		row, err := s.buildTransactionRow(ctx, conn.BuildingID, account.ID, txn, now)
		if err != nil {
			return 0, 0, err
		}
		if row.MatchStatus == models.MatchStatusMatched {
			matched++
		}
		rows = append(rows, *row)
	}

	if len(rows) == 0 {
		return 0, 0, nil
	}
	if err := s.store.InsertTransactions(ctx, rows); err != nil {
		return 0, 0, fmt.Errorf("insert transaction batch: %w", err)
	}
	return len(rows), matched, nil
}

// buildTransactionRow derives direction from the amount's sign, picks the
// counterparty from the payer side for credits and the payee side for
// debits, and attempts an inline IBAN match for credits.
func (s *Service) buildTransactionRow(ctx context.Context, buildingID int64, accountID uuid.UUID, txn aggregator.Transaction, now time.Time) (*models.BankTransaction, error) {
	amount, err := decimal.NewFromString(txn.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount for transaction %s: %w", txn.ID, err)
	}

	direction := models.DirectionCredit
	party := txn.Payer
	if amount.Sign() < 0 {
		direction = models.DirectionDebit
		party = txn.Payee
	}

	row := &models.BankTransaction{
		ID:                    uuid.New(),
		AccountID:             accountID,
		BuildingID:            buildingID,
		ExternalTransactionID: txn.ID,
		Direction:             direction,
		AmountCents:           amount.Abs().Shift(2).IntPart(),
		Description:           txn.Description,
		OriginalDescription:   txn.OriginalDescription,
		TransactionDate:       txn.Date,
		BookingDate:           txn.BookingDate,
		MatchStatus:           models.MatchStatusUnmatched,
		CreatedAt:             now,
	}
	if party != nil {
		row.CounterpartyName = party.Name
		if party.IBAN != "" {
			iban := util.NormalizeIBAN(party.IBAN)
			row.CounterpartyIBAN = &iban
		}
	}

	if direction == models.DirectionCredit && row.CounterpartyIBAN != nil {
		apartmentID, err := s.matchIbanToApartment(ctx, buildingID, *row.CounterpartyIBAN)
		switch {
		case err == nil:
			row.MatchedApartmentID = &apartmentID
			row.MatchStatus = models.MatchStatusMatched
		case errors.Is(err, ErrNotFound):
			// stays unmatched
		default:
			return nil, fmt.Errorf("match iban for transaction %s: %w", txn.ID, err)
		}
	}
	return row, nil
}
