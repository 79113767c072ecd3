// Package service implements the negotiation pipeline engine: creation,
// status transitions, the commission ledger, documents and reporting.
// All writes go through the store as single atomic units; domain events are
// published only after the owning transaction has committed.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/events"
	"imobcrm_backend/internal/negotiations/commission"
	"imobcrm_backend/internal/negotiations/domain"
	"imobcrm_backend/internal/negotiations/repository"
	"imobcrm_backend/internal/negotiations/transport"
	propdomain "imobcrm_backend/internal/properties/domain"
	"imobcrm_backend/platform/apperr"
	platformevents "imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
)

// Store is the negotiation persistence interface, consumer-driven: only
// what the pipeline engine needs.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Negotiation, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Negotiation, error)
	List(ctx context.Context, tenantID uuid.UUID, filters repository.ListFilters) ([]repository.Negotiation, int, error)
	ApplyTransition(ctx context.Context, params repository.TransitionParams) (repository.Negotiation, error)
	DeleteInStatus(ctx context.Context, tenantID, id uuid.UUID, allowed []domain.Status) error
	AppendCommission(ctx context.Context, tenantID, negotiationID uuid.UUID, params repository.CommissionParams) (repository.Negotiation, error)
	AppendDocument(ctx context.Context, tenantID, negotiationID uuid.UUID, params repository.DocumentParams) (repository.DocumentRecord, error)
	GetDocument(ctx context.Context, tenantID, negotiationID, documentID uuid.UUID) (repository.DocumentRecord, error)
	ListTimeline(ctx context.Context, tenantID, negotiationID uuid.UUID) ([]repository.TimelineEvent, error)
	ListCommissions(ctx context.Context, tenantID, negotiationID uuid.UUID) ([]repository.CommissionRecord, error)
	ListDocuments(ctx context.Context, tenantID, negotiationID uuid.UUID) ([]repository.DocumentRecord, error)
	Stats(ctx context.Context, tenantID uuid.UUID, filters repository.StatsFilters) (repository.Stats, error)
}

// PropertyView is the slice of catalog state the pipeline needs.
type PropertyView struct {
	ID       uuid.UUID
	Status   propdomain.Status
	Category propdomain.Category
}

// PropertyStore resolves properties within a tenant. Implemented by an
// adapter over the catalog repository.
type PropertyStore interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (PropertyView, bool, error)
}

// BrokerView is the slice of broker state the pipeline needs.
type BrokerView struct {
	ID                uuid.UUID
	CommissionPercent decimal.Decimal
}

// BrokerStore resolves brokers within a tenant.
type BrokerStore interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (BrokerView, bool, error)
}

// LeadStore answers lead existence within a tenant.
type LeadStore interface {
	Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// ObjectStorage stores document content and serves presigned download links.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, size int64, body io.Reader) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Service is the negotiation pipeline engine.
type Service struct {
	store      Store
	properties PropertyStore
	brokers    BrokerStore
	leads      LeadStore
	storage    ObjectStorage // optional, nil disables document uploads
	bus        platformevents.Bus
	log        *logger.Logger
}

// New creates the negotiation service.
func New(store Store, properties PropertyStore, brokers BrokerStore, leads LeadStore, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		properties: properties,
		brokers:    brokers,
		leads:      leads,
		bus:        bus,
		log:        log,
	}
}

// SetStorage injects the document storage backend.
func (s *Service) SetStorage(storage ObjectStorage) {
	s.storage = storage
}

const presignExpiry = 15 * time.Minute

// Create opens a negotiation in CONTATO after resolving all three referenced
// entities inside the tenant. A property already sold or rented, or an
// active negotiation for the same pair, rejects the request.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateNegotiationRequest) (transport.NegotiationResponse, error) {
	if req.ProposalValue != nil && req.ProposalValue.IsNegative() {
		return transport.NegotiationResponse{}, apperr.Validation("proposal value must not be negative")
	}

	exists, err := s.leads.Exists(ctx, tenantID, req.LeadID)
	if err != nil {
		return transport.NegotiationResponse{}, apperr.Dependency("lead lookup failed", err)
	}
	if !exists {
		return transport.NegotiationResponse{}, apperr.NotFound("lead not found")
	}

	property, found, err := s.properties.GetByID(ctx, tenantID, req.PropertyID)
	if err != nil {
		return transport.NegotiationResponse{}, apperr.Dependency("property lookup failed", err)
	}
	if !found {
		return transport.NegotiationResponse{}, apperr.NotFound("property not found")
	}
	if property.Status.Unavailable() {
		return transport.NegotiationResponse{}, apperr.Conflict(
			fmt.Sprintf("property is %s and cannot enter a new negotiation", property.Status))
	}

	if _, found, err = s.brokers.GetByID(ctx, tenantID, req.BrokerID); err != nil {
		return transport.NegotiationResponse{}, apperr.Dependency("broker lookup failed", err)
	} else if !found {
		return transport.NegotiationResponse{}, apperr.NotFound("broker not found")
	}

	n, err := s.store.Create(ctx, repository.CreateParams{
		TenantID:      tenantID,
		LeadID:        req.LeadID,
		PropertyID:    req.PropertyID,
		BrokerID:      req.BrokerID,
		ProposalValue: req.ProposalValue,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActive) {
			return transport.NegotiationResponse{}, apperr.Conflict("an active negotiation already exists for this lead and property")
		}
		return transport.NegotiationResponse{}, err
	}

	s.log.WithTenantID(tenantID.String()).Info("negotiation created",
		"id", n.ID, "lead_id", n.LeadID, "property_id", n.PropertyID, "broker_id", n.BrokerID)

	s.bus.Publish(ctx, events.NegotiationCreated{
		BaseEvent:     platformevents.NewBaseEvent(),
		TenantID:      tenantID,
		NegotiationID: n.ID,
		LeadID:        n.LeadID,
		PropertyID:    n.PropertyID,
		BrokerID:      n.BrokerID,
	})

	return transport.ToNegotiationResponse(n), nil
}

// GetByID fetches one negotiation.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.NegotiationResponse, error) {
	n, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.NegotiationResponse{}, s.translate(err)
	}
	return transport.ToNegotiationResponse(n), nil
}

// List returns a filtered, paginated pipeline view.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListNegotiationsRequest) (transport.NegotiationListResponse, error) {
	if req.Status != "" && !domain.IsKnownStatus(domain.Status(req.Status)) {
		return transport.NegotiationListResponse{}, apperr.Validation(fmt.Sprintf("unknown status %q", req.Status))
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := s.store.List(ctx, tenantID, repository.ListFilters{
		Status:     domain.Status(req.Status),
		LeadID:     req.LeadID,
		PropertyID: req.PropertyID,
		BrokerID:   req.BrokerID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return transport.NegotiationListResponse{}, err
	}

	out := make([]transport.NegotiationResponse, len(items))
	for i, n := range items {
		out[i] = transport.ToNegotiationResponse(n)
	}
	return transport.NegotiationListResponse{Items: out, Total: total, Page: page, Limit: limit}, nil
}

// ChangeStatus moves a negotiation along the pipeline. Closing computes the
// broker's commission and flips the property status in the same unit of
// work; a concurrent transition on the same negotiation makes exactly one
// caller win.
func (s *Service) ChangeStatus(ctx context.Context, tenantID, id uuid.UUID, req transport.ChangeStatusRequest) (transport.NegotiationResponse, error) {
	target := domain.Status(req.Status)
	if !domain.IsKnownStatus(target) {
		return transport.NegotiationResponse{}, apperr.Validation(fmt.Sprintf("unknown status %q", req.Status))
	}

	current, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.NegotiationResponse{}, s.translate(err)
	}

	if !domain.CanTransition(current.Status, target) {
		return transport.NegotiationResponse{}, apperr.Conflict(
			fmt.Sprintf("cannot move negotiation from %s to %s", current.Status, target)).
			WithDetails(map[string]any{"allowedTargets": domain.AllowedTargets(current.Status)})
	}

	params := repository.TransitionParams{
		TenantID:    tenantID,
		ID:          id,
		FromStatus:  current.Status,
		ToStatus:    target,
		Description: req.Description,
	}

	switch target {
	case domain.StatusPerdido:
		if req.LossReason == "" {
			return transport.NegotiationResponse{}, apperr.Validation("loss reason is required when marking a negotiation as lost")
		}
		reason := req.LossReason
		params.LossReason = &reason

	case domain.StatusFechado:
		closing := req.ClosingValue
		if closing == nil {
			closing = current.ProposalValue
		}
		if closing == nil {
			return transport.NegotiationResponse{}, apperr.Validation("closing value is required when no proposal value exists")
		}
		if closing.IsNegative() {
			return transport.NegotiationResponse{}, apperr.Validation("closing value must not be negative")
		}
		params.ClosingValue = closing

		property, found, err := s.properties.GetByID(ctx, tenantID, current.PropertyID)
		if err != nil {
			return transport.NegotiationResponse{}, apperr.Dependency("property lookup failed", err)
		}
		if !found {
			return transport.NegotiationResponse{}, apperr.Dependency("linked property no longer resolves", repository.ErrPropertyUpdateFailed)
		}

		broker, found, err := s.brokers.GetByID(ctx, tenantID, current.BrokerID)
		if err != nil {
			return transport.NegotiationResponse{}, apperr.Dependency("broker lookup failed", err)
		}
		if !found {
			return transport.NegotiationResponse{}, apperr.Dependency("assigned broker no longer resolves", nil)
		}

		amount, err := commission.Calculate(*closing, broker.CommissionPercent)
		if err != nil {
			return transport.NegotiationResponse{}, err
		}

		params.Commission = &repository.CommissionParams{
			BrokerID: current.BrokerID,
			Percent:  broker.CommissionPercent,
			Amount:   amount,
			Tipo:     domain.ComissaoVenda,
		}
		params.Property = &repository.PropertyStatusUpdate{
			PropertyID: current.PropertyID,
			NewStatus:  string(property.Category.ClosedStatus()),
		}
	}

	n, err := s.store.ApplyTransition(ctx, params)
	if err != nil {
		return transport.NegotiationResponse{}, s.translate(err)
	}

	s.log.WithTenantID(tenantID.String()).Info("negotiation status changed",
		"id", n.ID, "from", current.Status, "to", n.Status)

	s.publishTransitionEvents(ctx, tenantID, n, current.Status, params)

	return transport.ToNegotiationResponse(n), nil
}

func (s *Service) publishTransitionEvents(ctx context.Context, tenantID uuid.UUID, n repository.Negotiation, from domain.Status, params repository.TransitionParams) {
	s.bus.Publish(ctx, events.NegotiationStatusChanged{
		BaseEvent:      platformevents.NewBaseEvent(),
		TenantID:       tenantID,
		NegotiationID:  n.ID,
		BrokerID:       n.BrokerID,
		PreviousStatus: string(from),
		NewStatus:      string(n.Status),
	})

	switch n.Status {
	case domain.StatusFechado:
		var closing decimal.Decimal
		if n.ClosingValue != nil {
			closing = *n.ClosingValue
		}
		s.bus.Publish(ctx, events.NegotiationClosed{
			BaseEvent:     platformevents.NewBaseEvent(),
			TenantID:      tenantID,
			NegotiationID: n.ID,
			PropertyID:    n.PropertyID,
			BrokerID:      n.BrokerID,
			ClosingValue:  closing,
		})
		if params.Commission != nil {
			s.bus.Publish(ctx, events.CommissionAdded{
				BaseEvent:     platformevents.NewBaseEvent(),
				TenantID:      tenantID,
				NegotiationID: n.ID,
				BrokerID:      params.Commission.BrokerID,
				Amount:        params.Commission.Amount,
				Tipo:          string(params.Commission.Tipo),
			})
		}
	case domain.StatusPerdido:
		var reason string
		if n.LossReason != nil {
			reason = *n.LossReason
		}
		s.bus.Publish(ctx, events.NegotiationLost{
			BaseEvent:     platformevents.NewBaseEvent(),
			TenantID:      tenantID,
			NegotiationID: n.ID,
			BrokerID:      n.BrokerID,
			LossReason:    reason,
		})
	}
}

// AddCommission appends one commission record to a negotiation's ledger.
// The ledger is append-only; records are never updated or removed.
func (s *Service) AddCommission(ctx context.Context, tenantID, id uuid.UUID, req transport.AddCommissionRequest) (transport.NegotiationResponse, error) {
	tipo := domain.CommissionTipo(req.Tipo)
	if !domain.IsKnownCommissionTipo(tipo) {
		return transport.NegotiationResponse{}, apperr.Validation(fmt.Sprintf("unknown commission type %q", req.Tipo))
	}
	if req.Percent.IsNegative() || req.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return transport.NegotiationResponse{}, apperr.Validation("percent must be between 0 and 100")
	}
	if req.Value.IsNegative() {
		return transport.NegotiationResponse{}, apperr.Validation("value must not be negative")
	}

	_, found, err := s.brokers.GetByID(ctx, tenantID, req.BrokerID)
	if err != nil {
		return transport.NegotiationResponse{}, apperr.Dependency("broker lookup failed", err)
	}
	if !found {
		return transport.NegotiationResponse{}, apperr.NotFound("broker not found")
	}

	n, err := s.store.AppendCommission(ctx, tenantID, id, repository.CommissionParams{
		BrokerID: req.BrokerID,
		Percent:  req.Percent,
		Amount:   req.Value,
		Tipo:     tipo,
	})
	if err != nil {
		return transport.NegotiationResponse{}, s.translate(err)
	}

	s.bus.Publish(ctx, events.CommissionAdded{
		BaseEvent:     platformevents.NewBaseEvent(),
		TenantID:      tenantID,
		NegotiationID: n.ID,
		BrokerID:      req.BrokerID,
		Amount:        req.Value,
		Tipo:          string(tipo),
	})

	return transport.ToNegotiationResponse(n), nil
}

// Delete destroys a negotiation while it is still in CONTATO or already
// terminal in PERDIDO or CANCELADO. Anything mid-pipeline must be moved to a
// terminal status first.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	err := s.store.DeleteInStatus(ctx, tenantID, id, domain.DeletableStatuses)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperr.Conflict("active negotiations cannot be deleted; move the negotiation to a terminal status first")
		}
		return s.translate(err)
	}

	s.log.WithTenantID(tenantID.String()).Info("negotiation deleted", "id", id)
	return nil
}

// Timeline returns a negotiation's full event log in append order.
func (s *Service) Timeline(ctx context.Context, tenantID, id uuid.UUID) ([]transport.TimelineEventResponse, error) {
	if _, err := s.store.GetByID(ctx, tenantID, id); err != nil {
		return nil, s.translate(err)
	}
	items, err := s.store.ListTimeline(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return transport.ToTimelineResponse(items), nil
}

// Commissions returns a negotiation's commission ledger in append order.
func (s *Service) Commissions(ctx context.Context, tenantID, id uuid.UUID) ([]transport.CommissionResponse, error) {
	if _, err := s.store.GetByID(ctx, tenantID, id); err != nil {
		return nil, s.translate(err)
	}
	items, err := s.store.ListCommissions(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return transport.ToCommissionResponses(items), nil
}

// AddDocument stores the uploaded content and records the document on the
// negotiation's timeline.
func (s *Service) AddDocument(ctx context.Context, tenantID, id uuid.UUID, req transport.AddDocumentRequest, size int64, body io.Reader) (transport.DocumentResponse, error) {
	if s.storage == nil {
		return transport.DocumentResponse{}, apperr.Dependency("document storage is not configured", nil)
	}
	if _, err := s.store.GetByID(ctx, tenantID, id); err != nil {
		return transport.DocumentResponse{}, s.translate(err)
	}

	key := fmt.Sprintf("%s/%s/%s-%s", tenantID, id, uuid.New(), req.FileName)
	if err := s.storage.Upload(ctx, key, req.ContentType, size, body); err != nil {
		return transport.DocumentResponse{}, apperr.Dependency("document upload failed", err)
	}

	doc, err := s.store.AppendDocument(ctx, tenantID, id, repository.DocumentParams{
		FileName:    req.FileName,
		FileKey:     key,
		ContentType: req.ContentType,
		SizeBytes:   size,
	})
	if err != nil {
		return transport.DocumentResponse{}, s.translate(err)
	}

	url, err := s.storage.PresignedURL(ctx, doc.FileKey, presignExpiry)
	if err != nil {
		s.log.Warn("presign failed for fresh document", "document_id", doc.ID, "error", err)
		url = ""
	}
	return transport.ToDocumentResponse(doc, url), nil
}

// Documents lists a negotiation's documents with fresh download links.
func (s *Service) Documents(ctx context.Context, tenantID, id uuid.UUID) ([]transport.DocumentResponse, error) {
	if _, err := s.store.GetByID(ctx, tenantID, id); err != nil {
		return nil, s.translate(err)
	}
	items, err := s.store.ListDocuments(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	out := make([]transport.DocumentResponse, len(items))
	for i, doc := range items {
		var url string
		if s.storage != nil {
			if u, err := s.storage.PresignedURL(ctx, doc.FileKey, presignExpiry); err == nil {
				url = u
			}
		}
		out[i] = transport.ToDocumentResponse(doc, url)
	}
	return out, nil
}

// Stats aggregates the pipeline into the management report: totals, closed
// deals, conversion rate, closed volume and average ticket.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID, req transport.StatsRequest) (transport.StatsResponse, error) {
	raw, err := s.store.Stats(ctx, tenantID, repository.StatsFilters{
		BrokerID: req.BrokerID,
		From:     req.From,
		To:       req.To,
	})
	if err != nil {
		return transport.StatsResponse{}, err
	}

	porStatus := make(map[string]int, len(domain.AllStatuses()))
	for _, st := range domain.AllStatuses() {
		porStatus[string(st)] = raw.CountByStatus[st]
	}

	resp := transport.StatsResponse{
		Total:         raw.Total,
		Fechadas:      raw.Closed,
		TaxaConversao: decimal.Zero,
		ValorTotal:    raw.ClosedSum,
		TicketMedio:   decimal.Zero,
		PorStatus:     porStatus,
	}
	if raw.Total > 0 {
		resp.TaxaConversao = decimal.NewFromInt(int64(raw.Closed)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(raw.Total))).
			Round(2)
	}
	if raw.Closed > 0 {
		resp.TicketMedio = raw.ClosedSum.
			Div(decimal.NewFromInt(int64(raw.Closed))).
			Round(2)
	}
	return resp, nil
}

// translate maps store sentinels onto the shared error taxonomy.
func (s *Service) translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("negotiation not found")
	case errors.Is(err, repository.ErrStaleStatus):
		return apperr.Conflict("negotiation was modified concurrently; reload and retry")
	case errors.Is(err, repository.ErrDuplicateActive):
		return apperr.Conflict("an active negotiation already exists for this lead and property")
	case errors.Is(err, repository.ErrPropertyUpdateFailed):
		return apperr.Dependency("linked property update failed", err)
	}
	return err
}
