// Package bank is the bank-connection and transaction-reconciliation engine:
// it links a building's bank account through the Open Banking aggregator via
// OAuth, imports account balances and transactions, and associates incoming
// credits with the apartment that produced them.
package bank

import (
	"log"
	"time"

	"predio-server/src/aggregator"
)

// Service owns the connection lifecycle, token refresh, syncing, and
// matching. All dependencies are injected so tests can substitute fakes.
type Service struct {
	store  Store
	agg    aggregator.Client
	states *stateCodec
	logger *log.Logger
	now    func() time.Time
}

func NewService(store Store, agg aggregator.Client, stateSecret []byte, logger *log.Logger) *Service {
	now := time.Now
	return &Service{
		store:  store,
		agg:    agg,
		states: &stateCodec{secret: stateSecret, now: now},
		logger: logger,
		now:    now,
	}
}
