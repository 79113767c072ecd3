// Package repository persists leads and their append-only event log.
// Every query is scoped by tenant_id; a primary-key hit in another tenant
// behaves as if the row does not exist.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/leads/scoring"
)

var (
	// ErrNotFound is returned when a lead does not resolve within the
	// caller's tenant.
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicatePhone is returned when the tenant already has a lead with
	// the same normalized phone number.
	ErrDuplicatePhone = errors.New("a lead with this phone already exists")
)

const uniqueViolation = "23505"

// Interest captures what a lead is looking for. Stored as a JSONB document.
type Interest struct {
	PropertyTypes []string         `json:"property_types,omitempty"`
	PriceMin      *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax      *decimal.Decimal `json:"price_max,omitempty"`
	Locations     []string         `json:"locations,omitempty"`
}

// Lead is one captured lead with its qualification score.
type Lead struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Name          string
	Phone         string
	Email         *string
	CPF           *string
	SourceChannel scoring.SourceChannel
	Interest      Interest
	BrokerID      *uuid.UUID
	Score         int
	Temperature   scoring.Temperature
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository is the pgx-backed lead store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a lead repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadSelectCols = `
	id, tenant_id, name, phone, email, cpf, source_channel, interest,
	broker_id, score, temperature, created_at, updated_at`

const getLeadQuery = `
	SELECT` + leadSelectCols + `
	FROM leads
	WHERE id = $1 AND tenant_id = $2`

// CreateParams are the inputs for capturing a lead. Score and Temperature
// are computed by the caller from the attributes known at this instant.
type CreateParams struct {
	TenantID      uuid.UUID
	Name          string
	Phone         string
	Email         *string
	CPF           *string
	SourceChannel scoring.SourceChannel
	Interest      Interest
	BrokerID      *uuid.UUID
	Score         int
	Temperature   scoring.Temperature
}

// Create inserts the lead and its CRIACAO event in one transaction. The
// per-tenant unique index on phone turns a duplicate into ErrDuplicatePhone.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Lead, error) {
	interest, err := json.Marshal(params.Interest)
	if err != nil {
		return Lead{}, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lead Lead
	row := tx.QueryRow(ctx, `
		INSERT INTO leads (tenant_id, name, phone, email, cpf, source_channel, interest, broker_id, score, temperature)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING`+leadSelectCols,
		params.TenantID, params.Name, params.Phone, params.Email, params.CPF,
		string(params.SourceChannel), interest, params.BrokerID,
		params.Score, string(params.Temperature),
	)
	if err := scanLead(row, &lead); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Lead{}, ErrDuplicatePhone
		}
		return Lead{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"source_channel": params.SourceChannel,
		"score":          params.Score,
		"temperature":    params.Temperature,
	})
	if err != nil {
		return Lead{}, err
	}
	if err := appendLeadEventTx(ctx, tx, lead.TenantID, lead.ID, LeadEventCriacao, payload); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// GetByID fetches a lead within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Lead, error) {
	var lead Lead
	row := r.pool.QueryRow(ctx, getLeadQuery, id, tenantID)
	if err := scanLead(row, &lead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

// Exists reports whether a lead resolves within the tenant.
func (r *Repository) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1 AND tenant_id = $2)`,
		id, tenantID,
	).Scan(&exists)
	return exists, err
}

// ListFilters restrict List results. Zero values mean "no filter".
type ListFilters struct {
	Temperature   scoring.Temperature
	SourceChannel scoring.SourceChannel
	BrokerID      uuid.UUID
	Page          int
	Limit         int
}

const listLeadsBase = `
	FROM leads
	WHERE tenant_id = $1
	  AND ($2::text IS NULL OR temperature = $2)
	  AND ($3::text IS NULL OR source_channel = $3)
	  AND ($4::uuid IS NULL OR broker_id = $4)`

// List returns a page of leads plus the total matching count, hottest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Lead, int, error) {
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
		nilIfEmpty(string(filters.Temperature)),
		nilIfEmpty(string(filters.SourceChannel)),
		nilIfZero(filters.BrokerID),
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+listLeadsBase, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT`+leadSelectCols+listLeadsBase+`
		ORDER BY score DESC, created_at DESC
		LIMIT $5 OFFSET $6`,
		append(args, limit, (page-1)*limit)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := scanLead(rows, &lead); err != nil {
			return nil, 0, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

// UpdateParams carry a partial lead update. Nil fields are left untouched.
// Updating these fields never changes the stored score.
type UpdateParams struct {
	Name     *string
	Email    *string
	CPF      *string
	Interest *Interest
}

// Update applies a partial update to a lead's contact and interest fields.
func (r *Repository) Update(ctx context.Context, tenantID, id uuid.UUID, params UpdateParams) (Lead, error) {
	var interest []byte
	if params.Interest != nil {
		encoded, err := json.Marshal(params.Interest)
		if err != nil {
			return Lead{}, err
		}
		interest = encoded
	}

	var lead Lead
	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET name = COALESCE($1, name),
		    email = COALESCE($2, email),
		    cpf = COALESCE($3, cpf),
		    interest = COALESCE($4, interest),
		    updated_at = now()
		WHERE id = $5 AND tenant_id = $6
		RETURNING`+leadSelectCols,
		params.Name, params.Email, params.CPF, interest, id, tenantID,
	)
	if err := scanLead(row, &lead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

// AssignBroker sets the lead's broker and records the assignment on the
// lead's event log in one transaction.
func (r *Repository) AssignBroker(ctx context.Context, tenantID, id, brokerID uuid.UUID) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lead Lead
	row := tx.QueryRow(ctx, `
		UPDATE leads
		SET broker_id = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
		RETURNING`+leadSelectCols,
		brokerID, id, tenantID,
	)
	if err := scanLead(row, &lead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}

	payload, err := json.Marshal(map[string]any{"broker_id": brokerID})
	if err != nil {
		return Lead{}, err
	}
	if err := appendLeadEventTx(ctx, tx, tenantID, id, LeadEventAtribuicaoCorretor, payload); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// UpdateScore stores a recomputed score and records the recalculation on
// the lead's event log in one transaction.
func (r *Repository) UpdateScore(ctx context.Context, tenantID, id uuid.UUID, score int, temperature scoring.Temperature, previousScore int) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lead Lead
	row := tx.QueryRow(ctx, `
		UPDATE leads
		SET score = $1, temperature = $2, updated_at = now()
		WHERE id = $3 AND tenant_id = $4
		RETURNING`+leadSelectCols,
		score, string(temperature), id, tenantID,
	)
	if err := scanLead(row, &lead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"previous_score": previousScore,
		"score":          score,
		"temperature":    temperature,
	})
	if err != nil {
		return Lead{}, err
	}
	if err := appendLeadEventTx(ctx, tx, tenantID, id, LeadEventScoreRecalculado, payload); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// Stats aggregate the lead base by temperature.
type Stats struct {
	Total          int
	CountByTemp    map[scoring.Temperature]int
	CountByChannel map[scoring.SourceChannel]int
	AverageScore   decimal.Decimal
}

const leadStatsQuery = `
	SELECT temperature, source_channel, count(*), COALESCE(avg(score), 0)::text
	FROM leads
	WHERE tenant_id = $1
	GROUP BY temperature, source_channel`

// Stats aggregates the tenant's lead base.
func (r *Repository) Stats(ctx context.Context, tenantID uuid.UUID) (Stats, error) {
	rows, err := r.pool.Query(ctx, leadStatsQuery, tenantID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	stats := Stats{
		CountByTemp:    make(map[scoring.Temperature]int),
		CountByChannel: make(map[scoring.SourceChannel]int),
	}
	weighted := decimal.Zero
	for rows.Next() {
		var temp, channel, avg string
		var count int
		if err := rows.Scan(&temp, &channel, &count, &avg); err != nil {
			return Stats{}, err
		}
		avgScore, err := decimal.NewFromString(avg)
		if err != nil {
			return Stats{}, err
		}
		stats.CountByTemp[scoring.Temperature(temp)] += count
		stats.CountByChannel[scoring.SourceChannel(channel)] += count
		stats.Total += count
		weighted = weighted.Add(avgScore.Mul(decimal.NewFromInt(int64(count))))
	}
	if rows.Err() != nil {
		return Stats{}, rows.Err()
	}

	if stats.Total > 0 {
		stats.AverageScore = weighted.Div(decimal.NewFromInt(int64(stats.Total))).Round(2)
	}
	return stats, nil
}

type leadRowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s leadRowScanner, lead *Lead) error {
	var channel, temperature string
	var interest []byte
	if err := s.Scan(
		&lead.ID, &lead.TenantID, &lead.Name, &lead.Phone, &lead.Email, &lead.CPF,
		&channel, &interest, &lead.BrokerID, &lead.Score, &temperature,
		&lead.CreatedAt, &lead.UpdatedAt,
	); err != nil {
		return err
	}
	lead.SourceChannel = scoring.SourceChannel(channel)
	lead.Temperature = scoring.Temperature(temperature)
	if len(interest) > 0 {
		if err := json.Unmarshal(interest, &lead.Interest); err != nil {
			return err
		}
	}
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
