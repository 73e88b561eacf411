package bank

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"predio-server/src/models"
	"predio-server/src/util"
)

// AddResidentIban registers an apartment→IBAN association used to auto-match
// incoming credits. The value is normalized before storage.
func (s *Service) AddResidentIban(ctx context.Context, apartmentID int64, iban string, label *string) (*models.ResidentIban, error) {
	normalized := util.NormalizeIBAN(iban)
	if !util.ValidateIBAN(normalized) {
		return nil, newError(CodeValidation, "invalid IBAN")
	}

	rib := &models.ResidentIban{
		ID:          uuid.New(),
		ApartmentID: apartmentID,
		IBAN:        normalized,
		Label:       label,
		CreatedAt:   s.now(),
	}
	if err := s.store.AddResidentIban(ctx, rib); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, newError(CodeValidation, "IBAN already associated with this apartment")
		}
		return nil, wrapError(CodeInternal, "save resident iban", err)
	}
	return rib, nil
}

// RemoveResidentIban deletes an apartment→IBAN association.
func (s *Service) RemoveResidentIban(ctx context.Context, apartmentID int64, iban string) error {
	if err := s.store.RemoveResidentIban(ctx, apartmentID, util.NormalizeIBAN(iban)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(CodeNotFound, "resident iban not found")
		}
		return wrapError(CodeInternal, "remove resident iban", err)
	}
	return nil
}

// GetResidentIbans lists the IBAN registry for a building.
func (s *Service) GetResidentIbans(ctx context.Context, buildingID int64) ([]models.ResidentIban, error) {
	ribs, err := s.store.ListResidentIbans(ctx, buildingID)
	if err != nil {
		return nil, wrapError(CodeInternal, "list resident ibans", err)
	}
	return ribs, nil
}
