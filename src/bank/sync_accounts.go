package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"predio-server/src/aggregator"
	"predio-server/src/models"
	"predio-server/src/util"
)

// SyncAccounts upserts account metadata and balances from the aggregator and
// returns the number of accounts processed. Stale accounts are never deleted.
func (s *Service) SyncAccounts(ctx context.Context, buildingID int64) (int, error) {
	conn, err := s.store.GetConnectionByBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, newError(CodeNotFound, "no bank connection for building")
		}
		return 0, wrapError(CodeInternal, "load bank connection", err)
	}

	token, err := s.ensureAccessToken(ctx, conn)
	if err != nil {
		return 0, err
	}

	accounts, err := s.agg.GetAccounts(ctx, token)
	if err != nil {
		return 0, s.classifySyncError(ctx, conn, err)
	}

	now := s.now()
	for _, remote := range accounts {
		balance, err := minorUnits(remote.Balance)
		if err != nil {
			return 0, wrapError(CodeInternal, fmt.Sprintf("parse balance for account %s", remote.ID), err)
		}
		available, err := minorUnits(remote.AvailableBalance)
		if err != nil {
			return 0, wrapError(CodeInternal, fmt.Sprintf("parse available balance for account %s", remote.ID), err)
		}

		account := &models.BankAccount{
			ID:                uuid.New(),
			ConnectionID:      conn.ID,
			BuildingID:        buildingID,
			ExternalAccountID: remote.ID,
			Name:              remote.Name,
			IBAN:              accountIBAN(remote),
			BalanceCents:      balance,
			AvailableCents:    available,
			Currency:          remote.Currency,
			AccountType:       remote.Type,
			LastSyncAt:        &now,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.store.UpsertAccount(ctx, account); err != nil {
			return 0, wrapError(CodeInternal, fmt.Sprintf("upsert account %s", remote.ID), err)
		}
	}

	conn.LastSyncAt = &now
	conn.UpdatedAt = now
	if err := s.store.SaveConnection(ctx, conn); err != nil {
		return 0, wrapError(CodeInternal, "update connection sync time", err)
	}

	s.logger.Printf("INFO: Synced %d bank accounts for building %d", len(accounts), buildingID)
	return len(accounts), nil
}

// accountIBAN derives the IBAN, preferring the structured identifier over
// the flat field.
func accountIBAN(remote aggregator.Account) *string {
	raw := remote.IBAN
	if remote.Identifier != nil && remote.Identifier.IBAN != "" {
		raw = remote.Identifier.IBAN
	}
	if raw == "" {
		return nil
	}
	normalized := util.NormalizeIBAN(raw)
	return &normalized
}

// minorUnits converts a decimal string in major units to integer cents. An
// empty value maps to zero.
func minorUnits(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	return d.Shift(2).IntPart(), nil
}
