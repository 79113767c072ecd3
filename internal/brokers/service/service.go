// Package service provides business logic for brokers.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/brokers/repository"
	"imobcrm_backend/internal/brokers/transport"
	"imobcrm_backend/platform/apperr"
	"imobcrm_backend/platform/logger"
	"imobcrm_backend/platform/phone"
)

// Store is the broker persistence interface, consumer-driven.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Broker, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Broker, error)
	List(ctx context.Context, tenantID uuid.UUID, onlyActive bool) ([]repository.Broker, error)
	UpdateCommissionPercent(ctx context.Context, tenantID, id uuid.UUID, percent decimal.Decimal) (repository.Broker, error)
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (repository.Broker, error)
}

// Service provides the broker operations.
type Service struct {
	store Store
	log   *logger.Logger
}

// New creates a broker service.
func New(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

var oneHundred = decimal.NewFromInt(100)

func validatePercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(oneHundred) {
		return apperr.Validation("commission percent must be between 0 and 100")
	}
	return nil
}

// Create registers an active broker.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateBrokerRequest) (transport.BrokerResponse, error) {
	if err := validatePercent(req.CommissionPercent); err != nil {
		return transport.BrokerResponse{}, err
	}

	b, err := s.store.Create(ctx, repository.CreateParams{
		TenantID:          tenantID,
		Name:              req.Name,
		Email:             req.Email,
		Phone:             phone.NormalizeE164(req.Phone),
		CommissionPercent: req.CommissionPercent,
	})
	if err != nil {
		return transport.BrokerResponse{}, err
	}

	s.log.WithTenantID(tenantID.String()).Info("broker registered", "id", b.ID)
	return transport.ToBrokerResponse(b), nil
}

// GetByID fetches one broker.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.BrokerResponse, error) {
	b, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BrokerResponse{}, apperr.NotFound("broker not found")
		}
		return transport.BrokerResponse{}, err
	}
	return transport.ToBrokerResponse(b), nil
}

// List returns the tenant's brokers.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, onlyActive bool) ([]transport.BrokerResponse, error) {
	items, err := s.store.List(ctx, tenantID, onlyActive)
	if err != nil {
		return nil, err
	}

	out := make([]transport.BrokerResponse, len(items))
	for i, b := range items {
		out[i] = transport.ToBrokerResponse(b)
	}
	return out, nil
}

// UpdateCommission sets a broker's default commission rate. Future closes
// use the new rate; commission records already in any ledger are untouched.
func (s *Service) UpdateCommission(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateCommissionRequest) (transport.BrokerResponse, error) {
	if err := validatePercent(req.CommissionPercent); err != nil {
		return transport.BrokerResponse{}, err
	}

	b, err := s.store.UpdateCommissionPercent(ctx, tenantID, id, req.CommissionPercent)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BrokerResponse{}, apperr.NotFound("broker not found")
		}
		return transport.BrokerResponse{}, err
	}

	s.log.WithTenantID(tenantID.String()).Info("broker commission updated", "id", id, "percent", req.CommissionPercent)
	return transport.ToBrokerResponse(b), nil
}

// SetActive toggles a broker's availability for new assignments.
func (s *Service) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (transport.BrokerResponse, error) {
	b, err := s.store.SetActive(ctx, tenantID, id, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BrokerResponse{}, apperr.NotFound("broker not found")
		}
		return transport.BrokerResponse{}, err
	}
	return transport.ToBrokerResponse(b), nil
}
