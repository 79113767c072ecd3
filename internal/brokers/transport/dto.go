// Package transport defines the request and response DTOs of the brokers
// module.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/brokers/repository"
)

// CreateBrokerRequest registers a broker.
type CreateBrokerRequest struct {
	Name              string          `json:"name" validate:"required,max=255"`
	Email             string          `json:"email" validate:"required,email,max=255"`
	Phone             string          `json:"phone" validate:"required,max=32"`
	CommissionPercent decimal.Decimal `json:"commissionPercent" validate:"required"`
}

// UpdateCommissionRequest sets a broker's default commission rate.
type UpdateCommissionRequest struct {
	CommissionPercent decimal.Decimal `json:"commissionPercent" validate:"required"`
}

// SetActiveRequest toggles a broker's availability.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// BrokerResponse is the wire shape of a broker.
type BrokerResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ToBrokerResponse maps a repository row to its wire shape.
func ToBrokerResponse(b repository.Broker) BrokerResponse {
	return BrokerResponse{
		ID:                b.ID,
		Name:              b.Name,
		Email:             b.Email,
		Phone:             b.Phone,
		CommissionPercent: b.CommissionPercent,
		Active:            b.Active,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}
