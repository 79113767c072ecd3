package adapters

import (
	"context"

	"github.com/google/uuid"

	"imobcrm_backend/internal/leads/repository"
)

// LeadReaderAdapter adapts the leads repository for the negotiation pipeline.
// It implements the negotiations service.LeadStore interface.
type LeadReaderAdapter struct {
	repo *repository.Repository
}

func NewLeadReaderAdapter(repo *repository.Repository) *LeadReaderAdapter {
	return &LeadReaderAdapter{repo: repo}
}

func (a *LeadReaderAdapter) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return a.repo.Exists(ctx, tenantID, id)
}
