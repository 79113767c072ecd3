// Package transport defines the request and response DTOs of the
// properties module.
package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/properties/repository"
)

// CreatePropertyRequest lists a new property.
type CreatePropertyRequest struct {
	Title    string          `json:"title" validate:"required,max=255"`
	Category string          `json:"category" validate:"required,oneof=VENDA LOCACAO"`
	Price    decimal.Decimal `json:"price" validate:"required"`
	City     string          `json:"city" validate:"required,max=120"`
	District string          `json:"district,omitempty" validate:"max=120"`
}

// UpdateStatusRequest sets a property's availability status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DISPONIVEL VENDIDO ALUGADO"`
}

// ListPropertiesRequest filters and paginates the catalog listing.
type ListPropertiesRequest struct {
	Status   string `form:"status"`
	Category string `form:"category"`
	City     string `form:"city"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// PropertyResponse is the wire shape of a property.
type PropertyResponse struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Status    string          `json:"status"`
	Price     decimal.Decimal `json:"price"`
	City      string          `json:"city"`
	District  string          `json:"district,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PropertyListResponse is a paginated catalog listing.
type PropertyListResponse struct {
	Items []PropertyResponse `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// ToPropertyResponse maps a repository row to its wire shape.
func ToPropertyResponse(p repository.Property) PropertyResponse {
	return PropertyResponse{
		ID:        p.ID,
		Title:     p.Title,
		Category:  string(p.Category),
		Status:    string(p.Status),
		Price:     p.Price,
		City:      p.City,
		District:  p.District,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
