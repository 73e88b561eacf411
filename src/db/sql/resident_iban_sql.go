package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"predio-server/src/bank"
	"predio-server/src/models"
)

func (s *Store) AddResidentIban(ctx context.Context, rib *models.ResidentIban) error {
	query := `
		INSERT INTO resident_ibans (id, apartment_id, iban, label, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, rib.ID, rib.ApartmentID, rib.IBAN, rib.Label, rib.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return bank.ErrDuplicate
		}
		return fmt.Errorf("add resident iban: %w", err)
	}
	return nil
}

func (s *Store) RemoveResidentIban(ctx context.Context, apartmentID int64, iban string) error {
	query := `DELETE FROM resident_ibans WHERE apartment_id = $1 AND iban = $2`
	tag, err := s.pool.Exec(ctx, query, apartmentID, iban)
	if err != nil {
		return fmt.Errorf("remove resident iban: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) ListResidentIbans(ctx context.Context, buildingID int64) ([]models.ResidentIban, error) {
	query := `
		SELECT r.id, r.apartment_id, r.iban, r.label, r.created_at
		FROM resident_ibans r
		JOIN apartments a ON r.apartment_id = a.id
		WHERE a.building_id = $1
		ORDER BY r.apartment_id, r.iban
	`
	rows, err := s.pool.Query(ctx, query, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list resident ibans: %w", err)
	}
	defer rows.Close()

	var ribs []models.ResidentIban
	for rows.Next() {
		var r models.ResidentIban
		if err := rows.Scan(&r.ID, &r.ApartmentID, &r.IBAN, &r.Label, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resident iban: %w", err)
		}
		ribs = append(ribs, r)
	}
	return ribs, rows.Err()
}

// FindApartmentByIBAN resolves an IBAN within a building. LIMIT 1: when two
// apartments registered the same IBAN the first row wins.
func (s *Store) FindApartmentByIBAN(ctx context.Context, buildingID int64, iban string) (int64, error) {
	query := `
		SELECT r.apartment_id
		FROM resident_ibans r
		JOIN apartments a ON r.apartment_id = a.id
		WHERE a.building_id = $1 AND r.iban = $2
		ORDER BY r.created_at
		LIMIT 1
	`
	var apartmentID int64
	err := s.pool.QueryRow(ctx, query, buildingID, iban).Scan(&apartmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, bank.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find apartment by iban: %w", err)
	}
	return apartmentID, nil
}

func (s *Store) GetPaymentApartment(ctx context.Context, paymentID int64) (int64, error) {
	query := `SELECT apartment_id FROM payments WHERE id = $1`
	var apartmentID int64
	err := s.pool.QueryRow(ctx, query, paymentID).Scan(&apartmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, bank.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get payment apartment: %w", err)
	}
	return apartmentID, nil
}
