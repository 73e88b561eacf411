package bank

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"predio-server/src/models"
	"predio-server/src/util"
)

// matchIbanToApartment resolves a counterparty IBAN to an apartment within
// the building. The IBAN is normalized before lookup; the first registered
// apartment wins. Returns ErrNotFound when nobody registered it.
func (s *Service) matchIbanToApartment(ctx context.Context, buildingID int64, iban string) (int64, error) {
	return s.store.FindApartmentByIBAN(ctx, buildingID, util.NormalizeIBAN(iban))
}

// MatchTransactionsByIban sweeps every unmatched credit transaction of the
// building and re-attempts the IBAN lookup, useful after a resident
// registers an IBAN post-hoc. Debits are never auto-matched: money leaving
// the account does not identify a paying resident. Returns the count newly
// matched.
func (s *Service) MatchTransactionsByIban(ctx context.Context, buildingID int64) (int, error) {
	credits, err := s.store.ListUnmatchedCredits(ctx, buildingID)
	if err != nil {
		return 0, wrapError(CodeInternal, "list unmatched credits", err)
	}

	matched := 0
	for _, txn := range credits {
		if txn.CounterpartyIBAN == nil {
			continue
		}
		apartmentID, err := s.matchIbanToApartment(ctx, buildingID, *txn.CounterpartyIBAN)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return matched, wrapError(CodeInternal, "match transaction iban", err)
		}
		if err := s.store.UpdateTransactionMatch(ctx, txn.ID, &apartmentID, nil, models.MatchStatusMatched); err != nil {
			return matched, wrapError(CodeInternal, "update transaction match", err)
		}
		matched++
	}

	if matched > 0 {
		s.logger.Printf("INFO: IBAN sweep matched %d transactions for building %d", matched, buildingID)
	}
	return matched, nil
}

// ManuallyMatchTransaction stamps a transaction with a payment and the
// payment's apartment, bypassing IBAN logic entirely. This is the escape
// hatch for transactions that structurally can't be IBAN-matched (cash
// deposits, misspelled names).
func (s *Service) ManuallyMatchTransaction(ctx context.Context, transactionID uuid.UUID, paymentID int64) error {
	if _, err := s.store.GetTransaction(ctx, transactionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(CodeNotFound, "transaction not found")
		}
		return wrapError(CodeInternal, "load transaction", err)
	}

	apartmentID, err := s.store.GetPaymentApartment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(CodeNotFound, "payment not found")
		}
		return wrapError(CodeInternal, "resolve payment apartment", err)
	}

	if err := s.store.UpdateTransactionMatch(ctx, transactionID, &apartmentID, &paymentID, models.MatchStatusMatched); err != nil {
		return wrapError(CodeInternal, "update transaction match", err)
	}
	s.logger.Printf("INFO: Transaction %s manually matched to payment %d (apartment %d)", transactionID, paymentID, apartmentID)
	return nil
}

// IgnoreTransaction removes a transaction from the actionable unmatched
// queue without claiming a payment.
func (s *Service) IgnoreTransaction(ctx context.Context, transactionID uuid.UUID) error {
	if _, err := s.store.GetTransaction(ctx, transactionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(CodeNotFound, "transaction not found")
		}
		return wrapError(CodeInternal, "load transaction", err)
	}
	if err := s.store.UpdateTransactionMatch(ctx, transactionID, nil, nil, models.MatchStatusIgnored); err != nil {
		return wrapError(CodeInternal, "ignore transaction", err)
	}
	return nil
}

// GetUnmatchedTransactions lists the building's transactions still awaiting
// reconciliation.
func (s *Service) GetUnmatchedTransactions(ctx context.Context, buildingID int64) ([]models.BankTransaction, error) {
	txns, err := s.store.ListUnmatchedTransactions(ctx, buildingID)
	if err != nil {
		return nil, wrapError(CodeInternal, "list unmatched transactions", err)
	}
	return txns, nil
}
