package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"imobcrm_backend/internal/brokers/repository"
	"imobcrm_backend/internal/negotiations/service"
)

// BrokerReaderAdapter adapts the brokers repository for the negotiation
// pipeline. It implements the negotiations service.BrokerStore interface and
// the leads service.BrokerChecker interface.
type BrokerReaderAdapter struct {
	repo *repository.Repository
}

func NewBrokerReaderAdapter(repo *repository.Repository) *BrokerReaderAdapter {
	return &BrokerReaderAdapter{repo: repo}
}

func (a *BrokerReaderAdapter) GetByID(ctx context.Context, tenantID, id uuid.UUID) (service.BrokerView, bool, error) {
	broker, err := a.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.BrokerView{}, false, nil
		}
		return service.BrokerView{}, false, err
	}
	return service.BrokerView{
		ID:                broker.ID,
		CommissionPercent: broker.CommissionPercent,
	}, true, nil
}

func (a *BrokerReaderAdapter) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	_, found, err := a.GetByID(ctx, tenantID, id)
	return found, err
}
