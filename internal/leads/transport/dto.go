// Package transport defines the request and response DTOs of the leads
// module.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/leads/repository"
	"imobcrm_backend/internal/leads/scoring"
)

// InterestPayload captures what the lead is looking for.
type InterestPayload struct {
	PropertyTypes []string         `json:"propertyTypes,omitempty"`
	PriceMin      *decimal.Decimal `json:"priceMin,omitempty"`
	PriceMax      *decimal.Decimal `json:"priceMax,omitempty"`
	Locations     []string         `json:"locations,omitempty"`
}

// CreateLeadRequest captures a new lead. The score is computed from these
// attributes at creation time.
type CreateLeadRequest struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Phone         string           `json:"phone" validate:"required,max=32"`
	Email         string           `json:"email,omitempty" validate:"omitempty,email,max=255"`
	CPF           string           `json:"cpf,omitempty" validate:"omitempty,max=14"`
	SourceChannel string           `json:"sourceChannel,omitempty" validate:"max=32"`
	Interest      *InterestPayload `json:"interest,omitempty"`
	BrokerID      *uuid.UUID       `json:"brokerId,omitempty"`
}

// UpdateLeadRequest applies a partial update. Updating these fields never
// changes the stored score; recomputation is a separate explicit call.
type UpdateLeadRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Email    *string          `json:"email,omitempty" validate:"omitempty,email,max=255"`
	CPF      *string          `json:"cpf,omitempty" validate:"omitempty,max=14"`
	Interest *InterestPayload `json:"interest,omitempty"`
}

// AssignBrokerRequest routes a lead to a broker.
type AssignBrokerRequest struct {
	BrokerID uuid.UUID `json:"brokerId" validate:"required"`
}

// ListLeadsRequest filters and paginates the lead listing.
type ListLeadsRequest struct {
	Temperature   string    `form:"temperature"`
	SourceChannel string    `form:"sourceChannel"`
	BrokerID      uuid.UUID `form:"brokerId"`
	Page          int       `form:"page"`
	Limit         int       `form:"limit"`
}

// LeadResponse is the wire shape of a lead.
type LeadResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Phone         string           `json:"phone"`
	Email         *string          `json:"email,omitempty"`
	CPF           *string          `json:"cpf,omitempty"`
	SourceChannel string           `json:"sourceChannel,omitempty"`
	Interest      *InterestPayload `json:"interest,omitempty"`
	BrokerID      *uuid.UUID       `json:"brokerId,omitempty"`
	Score         int              `json:"score"`
	Temperature   string           `json:"temperature"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// LeadListResponse is a paginated lead listing.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// LeadEventResponse is one lead event log entry.
type LeadEventResponse struct {
	ID        uuid.UUID       `json:"id"`
	Seq       int64           `json:"seq"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// LeadStatsResponse aggregates the lead base.
type LeadStatsResponse struct {
	Total          int             `json:"total"`
	PorTemperatura map[string]int  `json:"porTemperatura"`
	PorCanal       map[string]int  `json:"porCanal"`
	ScoreMedio     decimal.Decimal `json:"scoreMedio"`
}

// ToInterestPayload maps the stored interest document to its wire shape.
func ToInterestPayload(in repository.Interest) *InterestPayload {
	if len(in.PropertyTypes) == 0 && in.PriceMin == nil && in.PriceMax == nil && len(in.Locations) == 0 {
		return nil
	}
	return &InterestPayload{
		PropertyTypes: in.PropertyTypes,
		PriceMin:      in.PriceMin,
		PriceMax:      in.PriceMax,
		Locations:     in.Locations,
	}
}

// ToRepositoryInterest maps the wire interest to its stored shape.
func ToRepositoryInterest(in *InterestPayload) repository.Interest {
	if in == nil {
		return repository.Interest{}
	}
	return repository.Interest{
		PropertyTypes: in.PropertyTypes,
		PriceMin:      in.PriceMin,
		PriceMax:      in.PriceMax,
		Locations:     in.Locations,
	}
}

// ToLeadResponse maps a repository row to its wire shape.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:            lead.ID,
		Name:          lead.Name,
		Phone:         lead.Phone,
		Email:         lead.Email,
		CPF:           lead.CPF,
		SourceChannel: string(lead.SourceChannel),
		Interest:      ToInterestPayload(lead.Interest),
		BrokerID:      lead.BrokerID,
		Score:         lead.Score,
		Temperature:   string(lead.Temperature),
		CreatedAt:     lead.CreatedAt,
		UpdatedAt:     lead.UpdatedAt,
	}
}

// ToLeadEventResponses maps event log rows to their wire shape.
func ToLeadEventResponses(items []repository.LeadEvent) []LeadEventResponse {
	out := make([]LeadEventResponse, len(items))
	for i, ev := range items {
		out[i] = LeadEventResponse{
			ID:        ev.ID,
			Seq:       ev.Seq,
			Kind:      string(ev.Kind),
			Payload:   ev.Payload,
			CreatedAt: ev.CreatedAt,
		}
	}
	return out
}

// ToLeadStatsResponse maps the raw aggregates to the report shape, emitting
// zero counts for empty temperature buckets.
func ToLeadStatsResponse(stats repository.Stats) LeadStatsResponse {
	porTemperatura := map[string]int{
		string(scoring.TemperatureHot):  stats.CountByTemp[scoring.TemperatureHot],
		string(scoring.TemperatureWarm): stats.CountByTemp[scoring.TemperatureWarm],
		string(scoring.TemperatureCold): stats.CountByTemp[scoring.TemperatureCold],
	}

	porCanal := make(map[string]int, len(stats.CountByChannel))
	for channel, count := range stats.CountByChannel {
		porCanal[string(channel)] = count
	}

	return LeadStatsResponse{
		Total:          stats.Total,
		PorTemperatura: porTemperatura,
		PorCanal:       porCanal,
		ScoreMedio:     stats.AverageScore,
	}
}
