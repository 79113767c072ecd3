// Package transport defines the request and response DTOs of the
// negotiations module. Handlers bind and validate requests here; services
// return responses from here.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/negotiations/domain"
	"imobcrm_backend/internal/negotiations/repository"
)

// CreateNegotiationRequest opens a negotiation for a lead/property pair.
type CreateNegotiationRequest struct {
	LeadID        uuid.UUID        `json:"leadId" validate:"required"`
	PropertyID    uuid.UUID        `json:"propertyId" validate:"required"`
	BrokerID      uuid.UUID        `json:"brokerId" validate:"required"`
	ProposalValue *decimal.Decimal `json:"proposalValue,omitempty"`
	Notes         string           `json:"notes,omitempty" validate:"max=2000"`
}

// ChangeStatusRequest moves a negotiation to a new pipeline status.
type ChangeStatusRequest struct {
	Status       string           `json:"status" validate:"required"`
	Description  string           `json:"description,omitempty" validate:"max=2000"`
	LossReason   string           `json:"lossReason,omitempty" validate:"max=500"`
	ClosingValue *decimal.Decimal `json:"closingValue,omitempty"`
}

// AddCommissionRequest appends one commission record to the ledger.
type AddCommissionRequest struct {
	BrokerID uuid.UUID       `json:"brokerId" validate:"required"`
	Percent  decimal.Decimal `json:"percent" validate:"required"`
	Value    decimal.Decimal `json:"value" validate:"required"`
	Tipo     string          `json:"tipo" validate:"required,oneof=CAPTACAO VENDA SPLIT"`
}

// AddDocumentRequest records a document uploaded for a negotiation.
type AddDocumentRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=255"`
}

// ListNegotiationsRequest filters and paginates the pipeline listing.
type ListNegotiationsRequest struct {
	Status     string    `form:"status"`
	LeadID     uuid.UUID `form:"leadId"`
	PropertyID uuid.UUID `form:"propertyId"`
	BrokerID   uuid.UUID `form:"brokerId"`
	Page       int       `form:"page"`
	Limit      int       `form:"limit"`
}

// StatsRequest narrows the stats aggregation window.
type StatsRequest struct {
	BrokerID uuid.UUID `form:"brokerId"`
	From     time.Time `form:"from" time_format:"2006-01-02"`
	To       time.Time `form:"to" time_format:"2006-01-02"`
}

// NegotiationResponse is the wire shape of a negotiation.
type NegotiationResponse struct {
	ID             uuid.UUID        `json:"id"`
	LeadID         uuid.UUID        `json:"leadId"`
	PropertyID     uuid.UUID        `json:"propertyId"`
	BrokerID       uuid.UUID        `json:"brokerId"`
	Status         string           `json:"status"`
	AllowedTargets []string         `json:"allowedTargets"`
	ProposalValue  *decimal.Decimal `json:"proposalValue,omitempty"`
	ClosingValue   *decimal.Decimal `json:"closingValue,omitempty"`
	LossReason     *string          `json:"lossReason,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// NegotiationListResponse is a paginated pipeline listing.
type NegotiationListResponse struct {
	Items []NegotiationResponse `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// TimelineEventResponse is one timeline entry.
type TimelineEventResponse struct {
	ID        uuid.UUID       `json:"id"`
	Seq       int64           `json:"seq"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CommissionResponse is one commission ledger row.
type CommissionResponse struct {
	ID        uuid.UUID       `json:"id"`
	BrokerID  uuid.UUID       `json:"brokerId"`
	Percent   decimal.Decimal `json:"percent"`
	Value     decimal.Decimal `json:"value"`
	Tipo      string          `json:"tipo"`
	CreatedAt time.Time       `json:"createdAt"`
}

// DocumentResponse is one attached document's metadata.
type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StatsResponse is the pipeline aggregate report.
type StatsResponse struct {
	Total         int             `json:"total"`
	Fechadas      int             `json:"fechadas"`
	TaxaConversao decimal.Decimal `json:"taxaConversao"`
	ValorTotal    decimal.Decimal `json:"valorTotal"`
	TicketMedio   decimal.Decimal `json:"ticketMedio"`
	PorStatus     map[string]int  `json:"porStatus"`
}

// ToNegotiationResponse maps a repository row to its wire shape.
func ToNegotiationResponse(n repository.Negotiation) NegotiationResponse {
	targets := domain.AllowedTargets(n.Status)
	allowed := make([]string, len(targets))
	for i, t := range targets {
		allowed[i] = string(t)
	}

	return NegotiationResponse{
		ID:             n.ID,
		LeadID:         n.LeadID,
		PropertyID:     n.PropertyID,
		BrokerID:       n.BrokerID,
		Status:         string(n.Status),
		AllowedTargets: allowed,
		ProposalValue:  n.ProposalValue,
		ClosingValue:   n.ClosingValue,
		LossReason:     n.LossReason,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

// ToTimelineResponse maps timeline rows to their wire shape.
func ToTimelineResponse(items []repository.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, len(items))
	for i, ev := range items {
		out[i] = TimelineEventResponse{
			ID:        ev.ID,
			Seq:       ev.Seq,
			Kind:      string(ev.Kind),
			Payload:   ev.Payload,
			CreatedAt: ev.CreatedAt,
		}
	}
	return out
}

// ToCommissionResponses maps commission ledger rows to their wire shape.
func ToCommissionResponses(items []repository.CommissionRecord) []CommissionResponse {
	out := make([]CommissionResponse, len(items))
	for i, rec := range items {
		out[i] = CommissionResponse{
			ID:        rec.ID,
			BrokerID:  rec.BrokerID,
			Percent:   rec.Percent,
			Value:     rec.Amount,
			Tipo:      string(rec.Tipo),
			CreatedAt: rec.CreatedAt,
		}
	}
	return out
}

// ToDocumentResponse maps a document row to its wire shape. The URL is a
// presigned download link filled in by the service when storage is wired.
func ToDocumentResponse(doc repository.DocumentRecord, url string) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		URL:         url,
		CreatedAt:   doc.CreatedAt,
	}
}
