// Package repository persists the property catalog. Every query is scoped
// by tenant_id.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/properties/domain"
)

// ErrNotFound is returned when a property does not resolve within the
// caller's tenant.
var ErrNotFound = errors.New("property not found")

// Property is one catalog listing.
type Property struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Title     string
	Category  domain.Category
	Status    domain.Status
	Price     decimal.Decimal
	City      string
	District  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository is the pgx-backed property store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a property repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const propertySelectCols = `
	id, tenant_id, title, category, status, price::text, city, district, created_at, updated_at`

const getPropertyQuery = `
	SELECT` + propertySelectCols + `
	FROM properties
	WHERE id = $1 AND tenant_id = $2`

// CreateParams are the inputs for listing a property.
type CreateParams struct {
	TenantID uuid.UUID
	Title    string
	Category domain.Category
	Price    decimal.Decimal
	City     string
	District string
}

// Create inserts a property as DISPONIVEL.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Property, error) {
	var p Property
	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (tenant_id, title, category, status, price, city, district)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
		RETURNING`+propertySelectCols,
		params.TenantID, params.Title, string(params.Category),
		string(domain.StatusDisponivel), params.Price.String(), params.City, params.District,
	)
	if err := scanProperty(row, &p); err != nil {
		return Property{}, err
	}
	return p, nil
}

// GetByID fetches a property within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Property, error) {
	var p Property
	row := r.pool.QueryRow(ctx, getPropertyQuery, id, tenantID)
	if err := scanProperty(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrNotFound
		}
		return Property{}, err
	}
	return p, nil
}

// ListFilters restrict List results. Zero values mean "no filter".
type ListFilters struct {
	Status   domain.Status
	Category domain.Category
	City     string
	Page     int
	Limit    int
}

const listPropertiesBase = `
	FROM properties
	WHERE tenant_id = $1
	  AND ($2::text IS NULL OR status = $2)
	  AND ($3::text IS NULL OR category = $3)
	  AND ($4::text IS NULL OR city = $4)`

// List returns a page of properties plus the total matching count.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Property, int, error) {
	limit := filters.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}

	args := []any{
		tenantID,
		nilIfEmpty(string(filters.Status)),
		nilIfEmpty(string(filters.Category)),
		nilIfEmpty(filters.City),
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+listPropertiesBase, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT`+propertySelectCols+listPropertiesBase+`
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		append(args, limit, (page-1)*limit)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Property, 0)
	for rows.Next() {
		var p Property
		if err := scanProperty(rows, &p); err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

// UpdateStatus sets a property's availability status.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.Status) (Property, error) {
	var p Property
	row := r.pool.QueryRow(ctx, `
		UPDATE properties
		SET status = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
		RETURNING`+propertySelectCols,
		string(status), id, tenantID,
	)
	if err := scanProperty(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrNotFound
		}
		return Property{}, err
	}
	return p, nil
}

type propertyRowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(s propertyRowScanner, p *Property) error {
	var category, status, price string
	if err := s.Scan(
		&p.ID, &p.TenantID, &p.Title, &category, &status, &price,
		&p.City, &p.District, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return err
	}
	p.Category = domain.Category(category)
	p.Status = domain.Status(status)

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	p.Price = parsed
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
