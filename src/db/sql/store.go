// Package db implements the bank engine's Store port on PostgreSQL via pgx.
package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// forEachChunk invokes fn with successive slices of rows at most size long.
// Callers wrap the whole loop in one transaction when atomicity is required;
// chunking only bounds statement/batch size for the backend.
func forEachChunk[T any](rows []T, size int, fn func(chunk []T) error) error {
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		if err := fn(rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
