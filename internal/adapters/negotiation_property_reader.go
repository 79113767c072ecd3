package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"imobcrm_backend/internal/negotiations/service"
	"imobcrm_backend/internal/properties/repository"
)

// PropertyReaderAdapter adapts the properties repository for the negotiation
// pipeline. It implements the negotiations service.PropertyStore interface.
type PropertyReaderAdapter struct {
	repo *repository.Repository
}

func NewPropertyReaderAdapter(repo *repository.Repository) *PropertyReaderAdapter {
	return &PropertyReaderAdapter{repo: repo}
}

func (a *PropertyReaderAdapter) GetByID(ctx context.Context, tenantID, id uuid.UUID) (service.PropertyView, bool, error) {
	property, err := a.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.PropertyView{}, false, nil
		}
		return service.PropertyView{}, false, err
	}
	return service.PropertyView{
		ID:       property.ID,
		Status:   property.Status,
		Category: property.Category,
	}, true, nil
}
