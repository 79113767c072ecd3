// Package repository persists brokers. Every query is scoped by tenant_id.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a broker does not resolve within the
// caller's tenant.
var ErrNotFound = errors.New("broker not found")

// Broker is one registered broker. CommissionPercent is the default rate
// applied when a negotiation assigned to this broker closes.
type Broker struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Name              string
	Email             string
	Phone             string
	CommissionPercent decimal.Decimal
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Repository is the pgx-backed broker store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a broker repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const brokerSelectCols = `
	id, tenant_id, name, email, phone, commission_percent::text, active, created_at, updated_at`

const getBrokerQuery = `
	SELECT` + brokerSelectCols + `
	FROM brokers
	WHERE id = $1 AND tenant_id = $2`

// CreateParams are the inputs for registering a broker.
type CreateParams struct {
	TenantID          uuid.UUID
	Name              string
	Email             string
	Phone             string
	CommissionPercent decimal.Decimal
}

// Create registers an active broker.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Broker, error) {
	var b Broker
	row := r.pool.QueryRow(ctx, `
		INSERT INTO brokers (tenant_id, name, email, phone, commission_percent, active)
		VALUES ($1, $2, $3, $4, $5::numeric, true)
		RETURNING`+brokerSelectCols,
		params.TenantID, params.Name, params.Email, params.Phone, params.CommissionPercent.String(),
	)
	if err := scanBroker(row, &b); err != nil {
		return Broker{}, err
	}
	return b, nil
}

// GetByID fetches a broker within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Broker, error) {
	var b Broker
	row := r.pool.QueryRow(ctx, getBrokerQuery, id, tenantID)
	if err := scanBroker(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Broker{}, ErrNotFound
		}
		return Broker{}, err
	}
	return b, nil
}

const listBrokersQuery = `
	SELECT` + brokerSelectCols + `
	FROM brokers
	WHERE tenant_id = $1 AND ($2::bool IS NULL OR active = $2)
	ORDER BY name ASC`

// List returns the tenant's brokers, optionally only active ones.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, onlyActive bool) ([]Broker, error) {
	var activeFilter *bool
	if onlyActive {
		t := true
		activeFilter = &t
	}

	rows, err := r.pool.Query(ctx, listBrokersQuery, tenantID, activeFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Broker, 0)
	for rows.Next() {
		var b Broker
		if err := scanBroker(rows, &b); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// UpdateCommissionPercent sets a broker's default commission rate.
func (r *Repository) UpdateCommissionPercent(ctx context.Context, tenantID, id uuid.UUID, percent decimal.Decimal) (Broker, error) {
	var b Broker
	row := r.pool.QueryRow(ctx, `
		UPDATE brokers
		SET commission_percent = $1::numeric, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
		RETURNING`+brokerSelectCols,
		percent.String(), id, tenantID,
	)
	if err := scanBroker(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Broker{}, ErrNotFound
		}
		return Broker{}, err
	}
	return b, nil
}

// SetActive toggles a broker's availability for new assignments.
func (r *Repository) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (Broker, error) {
	var b Broker
	row := r.pool.QueryRow(ctx, `
		UPDATE brokers
		SET active = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
		RETURNING`+brokerSelectCols,
		active, id, tenantID,
	)
	if err := scanBroker(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Broker{}, ErrNotFound
		}
		return Broker{}, err
	}
	return b, nil
}

type brokerRowScanner interface {
	Scan(dest ...any) error
}

func scanBroker(s brokerRowScanner, b *Broker) error {
	var percent string
	if err := s.Scan(
		&b.ID, &b.TenantID, &b.Name, &b.Email, &b.Phone,
		&percent, &b.Active, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return err
	}

	parsed, err := decimal.NewFromString(percent)
	if err != nil {
		return err
	}
	b.CommissionPercent = parsed
	return nil
}
