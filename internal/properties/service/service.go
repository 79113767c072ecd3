// Package service provides business logic for the property catalog.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"imobcrm_backend/internal/properties/domain"
	"imobcrm_backend/internal/properties/repository"
	"imobcrm_backend/internal/properties/transport"
	"imobcrm_backend/platform/apperr"
	"imobcrm_backend/platform/logger"
)

// Store is the property persistence interface, consumer-driven.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Property, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Property, error)
	List(ctx context.Context, tenantID uuid.UUID, filters repository.ListFilters) ([]repository.Property, int, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.Status) (repository.Property, error)
}

// Service provides the property catalog operations.
type Service struct {
	store Store
	log   *logger.Logger
}

// New creates a property service.
func New(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Create lists a property as DISPONIVEL.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreatePropertyRequest) (transport.PropertyResponse, error) {
	if req.Price.IsNegative() {
		return transport.PropertyResponse{}, apperr.Validation("price must not be negative")
	}

	p, err := s.store.Create(ctx, repository.CreateParams{
		TenantID: tenantID,
		Title:    req.Title,
		Category: domain.Category(req.Category),
		Price:    req.Price,
		City:     req.City,
		District: req.District,
	})
	if err != nil {
		return transport.PropertyResponse{}, err
	}

	s.log.WithTenantID(tenantID.String()).Info("property listed", "id", p.ID, "category", p.Category)
	return transport.ToPropertyResponse(p), nil
}

// GetByID fetches one property.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.PropertyResponse, error) {
	p, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PropertyResponse{}, apperr.NotFound("property not found")
		}
		return transport.PropertyResponse{}, err
	}
	return transport.ToPropertyResponse(p), nil
}

// List returns a filtered, paginated catalog view.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListPropertiesRequest) (transport.PropertyListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := s.store.List(ctx, tenantID, repository.ListFilters{
		Status:   domain.Status(req.Status),
		Category: domain.Category(req.Category),
		City:     req.City,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return transport.PropertyListResponse{}, err
	}

	out := make([]transport.PropertyResponse, len(items))
	for i, p := range items {
		out[i] = transport.ToPropertyResponse(p)
	}
	return transport.PropertyListResponse{Items: out, Total: total, Page: page, Limit: limit}, nil
}

// UpdateStatus sets a property's availability status directly, outside any
// negotiation close.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateStatusRequest) (transport.PropertyResponse, error) {
	status := domain.Status(req.Status)
	if !domain.IsKnownStatus(status) {
		return transport.PropertyResponse{}, apperr.Validation("unknown property status")
	}

	p, err := s.store.UpdateStatus(ctx, tenantID, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PropertyResponse{}, apperr.NotFound("property not found")
		}
		return transport.PropertyResponse{}, err
	}

	s.log.WithTenantID(tenantID.String()).Info("property status updated", "id", id, "status", status)
	return transport.ToPropertyResponse(p), nil
}
