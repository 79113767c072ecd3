// Package service implements the lead qualification engine: capture with
// one-shot scoring, routing to brokers, and reporting. The score is computed
// exactly once at creation from the attributes known at that instant; later
// field updates never re-run it. Recomputation is the explicit
// RecalculateScore operation and nothing else.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"imobcrm_backend/internal/events"
	"imobcrm_backend/internal/leads/repository"
	"imobcrm_backend/internal/leads/scoring"
	"imobcrm_backend/internal/leads/transport"
	"imobcrm_backend/platform/apperr"
	platformevents "imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
	"imobcrm_backend/platform/phone"
)

// Store is the lead persistence interface, consumer-driven.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Lead, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, tenantID uuid.UUID, filters repository.ListFilters) ([]repository.Lead, int, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, params repository.UpdateParams) (repository.Lead, error)
	AssignBroker(ctx context.Context, tenantID, id, brokerID uuid.UUID) (repository.Lead, error)
	UpdateScore(ctx context.Context, tenantID, id uuid.UUID, score int, temperature scoring.Temperature, previousScore int) (repository.Lead, error)
	ListTimeline(ctx context.Context, tenantID, leadID uuid.UUID) ([]repository.LeadEvent, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (repository.Stats, error)
}

// BrokerChecker answers broker existence within a tenant.
type BrokerChecker interface {
	Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// Service is the lead qualification engine.
type Service struct {
	store   Store
	brokers BrokerChecker
	bus     platformevents.Bus
	log     *logger.Logger
}

// New creates the lead service.
func New(store Store, brokers BrokerChecker, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{store: store, brokers: brokers, bus: bus, log: log}
}

// scoringAttributes derives the pure-function inputs from a lead's fields.
func scoringAttributes(email, cpf *string, interest repository.Interest, channel scoring.SourceChannel, brokerID *uuid.UUID) scoring.Attributes {
	return scoring.Attributes{
		HasEmail: email != nil && *email != "",
		HasCPF:   cpf != nil && *cpf != "",
		Interest: scoring.Interest{
			PropertyTypes: interest.PropertyTypes,
			PriceRangeMin: interest.PriceMin != nil,
			PriceRangeMax: interest.PriceMax != nil,
			Locations:     interest.Locations,
		},
		SourceChannel:     channel,
		HasAssignedBroker: brokerID != nil,
	}
}

// Create captures a lead and scores it from the attributes known right now.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if req.BrokerID != nil {
		exists, err := s.brokers.Exists(ctx, tenantID, *req.BrokerID)
		if err != nil {
			return transport.LeadResponse{}, apperr.Dependency("broker lookup failed", err)
		}
		if !exists {
			return transport.LeadResponse{}, apperr.NotFound("broker not found")
		}
	}

	normalized := phone.NormalizeE164(req.Phone)
	interest := transport.ToRepositoryInterest(req.Interest)
	channel := scoring.SourceChannel(req.SourceChannel)

	var email, cpf *string
	if req.Email != "" {
		email = &req.Email
	}
	if req.CPF != "" {
		cpf = &req.CPF
	}

	result := scoring.Compute(scoringAttributes(email, cpf, interest, channel, req.BrokerID))

	lead, err := s.store.Create(ctx, repository.CreateParams{
		TenantID:      tenantID,
		Name:          req.Name,
		Phone:         normalized,
		Email:         email,
		CPF:           cpf,
		SourceChannel: channel,
		Interest:      interest,
		BrokerID:      req.BrokerID,
		Score:         result.Score,
		Temperature:   result.Temperature,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return transport.LeadResponse{}, apperr.Conflict("a lead with this phone already exists")
		}
		return transport.LeadResponse{}, err
	}

	s.log.WithTenantID(tenantID.String()).Info("lead captured",
		"id", lead.ID, "score", lead.Score, "temperature", lead.Temperature)

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:   platformevents.NewBaseEvent(),
		TenantID:    tenantID,
		LeadID:      lead.ID,
		Score:       lead.Score,
		Temperature: string(lead.Temperature),
	})

	return transport.ToLeadResponse(lead), nil
}

// GetByID fetches one lead.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.LeadResponse{}, s.translate(err)
	}
	return transport.ToLeadResponse(lead), nil
}

// List returns a filtered, paginated lead view, hottest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := s.store.List(ctx, tenantID, repository.ListFilters{
		Temperature:   scoring.Temperature(req.Temperature),
		SourceChannel: scoring.SourceChannel(req.SourceChannel),
		BrokerID:      req.BrokerID,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	out := make([]transport.LeadResponse, len(items))
	for i, lead := range items {
		out[i] = transport.ToLeadResponse(lead)
	}
	return transport.LeadListResponse{Items: out, Total: total, Page: page, Limit: limit}, nil
}

// Update applies a partial update to contact and interest fields. The stored
// score is deliberately left as it was.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateParams{
		Name:  req.Name,
		Email: req.Email,
		CPF:   req.CPF,
	}
	if req.Interest != nil {
		interest := transport.ToRepositoryInterest(req.Interest)
		params.Interest = &interest
	}

	lead, err := s.store.Update(ctx, tenantID, id, params)
	if err != nil {
		return transport.LeadResponse{}, s.translate(err)
	}
	return transport.ToLeadResponse(lead), nil
}

// AssignBroker routes a lead to a broker and records the assignment.
func (s *Service) AssignBroker(ctx context.Context, tenantID, id uuid.UUID, req transport.AssignBrokerRequest) (transport.LeadResponse, error) {
	exists, err := s.brokers.Exists(ctx, tenantID, req.BrokerID)
	if err != nil {
		return transport.LeadResponse{}, apperr.Dependency("broker lookup failed", err)
	}
	if !exists {
		return transport.LeadResponse{}, apperr.NotFound("broker not found")
	}

	lead, err := s.store.AssignBroker(ctx, tenantID, id, req.BrokerID)
	if err != nil {
		return transport.LeadResponse{}, s.translate(err)
	}

	s.log.WithTenantID(tenantID.String()).Info("lead assigned", "id", id, "broker_id", req.BrokerID)
	return transport.ToLeadResponse(lead), nil
}

// RecalculateScore recomputes the score from the lead's current attributes.
// This is the only path that ever changes a stored score after creation.
func (s *Service) RecalculateScore(ctx context.Context, tenantID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.LeadResponse{}, s.translate(err)
	}

	result := scoring.Compute(scoringAttributes(lead.Email, lead.CPF, lead.Interest, lead.SourceChannel, lead.BrokerID))
	if result.Score == lead.Score {
		return transport.ToLeadResponse(lead), nil
	}

	updated, err := s.store.UpdateScore(ctx, tenantID, id, result.Score, result.Temperature, lead.Score)
	if err != nil {
		return transport.LeadResponse{}, s.translate(err)
	}

	s.log.WithTenantID(tenantID.String()).Info("lead score recalculated",
		"id", id, "previous", lead.Score, "score", result.Score)

	s.bus.Publish(ctx, events.LeadScoreChanged{
		BaseEvent:     platformevents.NewBaseEvent(),
		TenantID:      tenantID,
		LeadID:        id,
		PreviousScore: lead.Score,
		Score:         result.Score,
		Temperature:   string(result.Temperature),
	})

	return transport.ToLeadResponse(updated), nil
}

// Timeline returns a lead's full event log in append order.
func (s *Service) Timeline(ctx context.Context, tenantID, id uuid.UUID) ([]transport.LeadEventResponse, error) {
	if _, err := s.store.GetByID(ctx, tenantID, id); err != nil {
		return nil, s.translate(err)
	}
	items, err := s.store.ListTimeline(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return transport.ToLeadEventResponses(items), nil
}

// Stats aggregates the tenant's lead base by temperature and channel.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (transport.LeadStatsResponse, error) {
	stats, err := s.store.Stats(ctx, tenantID)
	if err != nil {
		return transport.LeadStatsResponse{}, err
	}
	return transport.ToLeadStatsResponse(stats), nil
}

func (s *Service) translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("lead not found")
	case errors.Is(err, repository.ErrDuplicatePhone):
		return apperr.Conflict("a lead with this phone already exists")
	}
	return err
}
