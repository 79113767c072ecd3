// Package repository persists the negotiation aggregate: the root row, its
// append-only timeline, the commission ledger and the document list. Every
// query is scoped by tenant_id; a primary-key hit in another tenant behaves
// as if the row does not exist.
package repository

import (
	"context"
	"errors"
	"time"

	"imobcrm_backend/internal/negotiations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a negotiation does not resolve within
	// the caller's tenant.
	ErrNotFound = errors.New("negotiation not found")
	// ErrDuplicateActive is returned when an active negotiation already
	// exists for the same (lead, property) pair in the tenant.
	ErrDuplicateActive = errors.New("active negotiation already exists for this lead and property")
	// ErrStaleStatus is returned when the status precondition of a
	// transition no longer holds; a concurrent writer won the race.
	ErrStaleStatus = errors.New("negotiation status changed concurrently")
	// ErrPropertyUpdateFailed is returned when the linked property row
	// could not be updated inside the transition transaction.
	ErrPropertyUpdateFailed = errors.New("linked property update failed")
)

// uniqueViolation is the PostgreSQL error code the active-pair partial
// unique index raises.
const uniqueViolation = "23505"

// Negotiation is the aggregate root row.
type Negotiation struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	LeadID        uuid.UUID
	PropertyID    uuid.UUID
	BrokerID      uuid.UUID
	Status        domain.Status
	ProposalValue *decimal.Decimal
	ClosingValue  *decimal.Decimal
	LossReason    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository is the pgx-backed negotiation store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a negotiation repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Numeric columns are selected as text and parsed into decimals; this keeps
// money values exact end to end and independent of driver codec behavior.
const negotiationSelectCols = `
	id, tenant_id, lead_id, property_id, broker_id, status,
	proposal_value::text, closing_value::text, loss_reason, created_at, updated_at`

const getNegotiationQuery = `
	SELECT` + negotiationSelectCols + `
	FROM negotiations
	WHERE id = $1 AND tenant_id = $2`

// CreateParams are the inputs for opening a negotiation. Status is always
// CONTATO on creation; callers do not choose it.
type CreateParams struct {
	TenantID      uuid.UUID
	LeadID        uuid.UUID
	PropertyID    uuid.UUID
	BrokerID      uuid.UUID
	ProposalValue *decimal.Decimal
	Notes         string
}

// Create inserts the negotiation root row and its CRIACAO timeline entry in
// one transaction. The partial unique index on active pairs turns a
// concurrent duplicate into ErrDuplicateActive.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Negotiation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Negotiation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var n Negotiation
	row := tx.QueryRow(ctx, `
		INSERT INTO negotiations (tenant_id, lead_id, property_id, broker_id, status, proposal_value)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)
		RETURNING`+negotiationSelectCols,
		params.TenantID, params.LeadID, params.PropertyID, params.BrokerID,
		string(domain.StatusContato), decPtrToString(params.ProposalValue),
	)
	if err := scanNegotiation(row, &n); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Negotiation{}, ErrDuplicateActive
		}
		return Negotiation{}, err
	}

	payload, err := domain.EncodeEventPayload(domain.EventCriacao, domain.CriacaoPayload{
		BrokerID:      params.BrokerID,
		ProposalValue: params.ProposalValue,
		Notes:         params.Notes,
	})
	if err != nil {
		return Negotiation{}, err
	}
	if err := appendEventTx(ctx, tx, n.TenantID, n.ID, domain.EventCriacao, payload); err != nil {
		return Negotiation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Negotiation{}, err
	}
	return n, nil
}

// GetByID fetches a negotiation within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Negotiation, error) {
	var n Negotiation
	row := r.pool.QueryRow(ctx, getNegotiationQuery, id, tenantID)
	if err := scanNegotiation(row, &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Negotiation{}, ErrNotFound
		}
		return Negotiation{}, err
	}
	return n, nil
}

// ListFilters restrict List results. Zero values mean "no filter".
type ListFilters struct {
	Status     domain.Status
	LeadID     uuid.UUID
	PropertyID uuid.UUID
	BrokerID   uuid.UUID
	Page       int
	Limit      int
}

const listNegotiationsBase = `
	FROM negotiations
	WHERE tenant_id = $1
	  AND ($2::text IS NULL OR status = $2)
	  AND ($3::uuid IS NULL OR lead_id = $3)
	  AND ($4::uuid IS NULL OR property_id = $4)
	  AND ($5::uuid IS NULL OR broker_id = $5)`

// List returns a page of negotiations plus the total matching count.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Negotiation, int, error) {
	limit := filters.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var status *string
	if filters.Status != "" {
		s := string(filters.Status)
		status = &s
	}

	args := []any{
		tenantID, status,
		nilIfZero(filters.LeadID), nilIfZero(filters.PropertyID), nilIfZero(filters.BrokerID),
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+listNegotiationsBase, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT`+negotiationSelectCols+listNegotiationsBase+`
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Negotiation, 0)
	for rows.Next() {
		var n Negotiation
		if err := scanNegotiation(rows, &n); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

// PropertyStatusUpdate is the property side effect applied inside a
// transition transaction.
type PropertyStatusUpdate struct {
	PropertyID uuid.UUID
	NewStatus  string
}

// CommissionParams describe one commission ledger append.
type CommissionParams struct {
	BrokerID uuid.UUID
	Percent  decimal.Decimal
	Amount   decimal.Decimal
	Tipo     domain.CommissionTipo
}

// TransitionParams describe one atomic pipeline transition: the optimistic
// status update, the timeline append, and optionally a commission append and
// a property status update. All of it commits or none of it does.
type TransitionParams struct {
	TenantID     uuid.UUID
	ID           uuid.UUID
	FromStatus   domain.Status
	ToStatus     domain.Status
	LossReason   *string
	ClosingValue *decimal.Decimal
	Description  string
	Commission   *CommissionParams
	Property     *PropertyStatusUpdate
}

const transitionUpdateQuery = `
	UPDATE negotiations
	SET status = $1,
	    loss_reason = COALESCE($2, loss_reason),
	    closing_value = COALESCE($3::numeric, closing_value),
	    updated_at = now()
	WHERE id = $4 AND tenant_id = $5 AND status = $6
	RETURNING` + negotiationSelectCols

// ApplyTransition performs the atomic unit of work for changeStatus. The
// UPDATE is conditioned on the expected current status: of two concurrent
// writers exactly one matches the precondition and the other receives
// ErrStaleStatus, so a close can never double-append its commission or
// double-fire the property update.
func (r *Repository) ApplyTransition(ctx context.Context, params TransitionParams) (Negotiation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Negotiation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var n Negotiation
	row := tx.QueryRow(ctx, transitionUpdateQuery,
		string(params.ToStatus), params.LossReason, decPtrToString(params.ClosingValue),
		params.ID, params.TenantID, string(params.FromStatus),
	)
	if err := scanNegotiation(row, &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Negotiation{}, r.classifyMissedUpdate(ctx, params.TenantID, params.ID)
		}
		return Negotiation{}, err
	}

	payload, err := domain.EncodeEventPayload(domain.EventMudancaStatus, domain.MudancaStatusPayload{
		PreviousStatus: params.FromStatus,
		NewStatus:      params.ToStatus,
		Description:    params.Description,
		LossReason:     stringOrEmpty(params.LossReason),
		ClosingValue:   params.ClosingValue,
	})
	if err != nil {
		return Negotiation{}, err
	}
	if err := appendEventTx(ctx, tx, n.TenantID, n.ID, domain.EventMudancaStatus, payload); err != nil {
		return Negotiation{}, err
	}

	if params.Commission != nil {
		if err := appendCommissionTx(ctx, tx, n.TenantID, n.ID, *params.Commission); err != nil {
			return Negotiation{}, err
		}
	}

	if params.Property != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE properties
			SET status = $1, updated_at = now()
			WHERE id = $2 AND tenant_id = $3`,
			params.Property.NewStatus, params.Property.PropertyID, params.TenantID,
		)
		if err != nil {
			return Negotiation{}, err
		}
		if tag.RowsAffected() == 0 {
			return Negotiation{}, ErrPropertyUpdateFailed
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Negotiation{}, err
	}
	return n, nil
}

// classifyMissedUpdate distinguishes "row gone or wrong tenant" from "row
// exists but the status precondition failed".
func (r *Repository) classifyMissedUpdate(ctx context.Context, tenantID, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM negotiations WHERE id = $1 AND tenant_id = $2)`,
		id, tenantID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleStatus
}

// DeleteInStatus removes a negotiation only while its status is one of the
// allowed values, in a single conditional statement so a concurrent
// transition cannot slip a deletion past the check. Timeline, commission and
// document rows go with it via ON DELETE CASCADE.
func (r *Repository) DeleteInStatus(ctx context.Context, tenantID, id uuid.UUID, allowed []domain.Status) error {
	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM negotiations
		WHERE id = $1 AND tenant_id = $2 AND status = ANY($3)`,
		id, tenantID, statuses,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, tenantID, id)
	}
	return nil
}

type negotiationRowScanner interface {
	Scan(dest ...any) error
}

func scanNegotiation(s negotiationRowScanner, n *Negotiation) error {
	var proposal, closing *string
	if err := s.Scan(
		&n.ID, &n.TenantID, &n.LeadID, &n.PropertyID, &n.BrokerID, &n.Status,
		&proposal, &closing, &n.LossReason, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return err
	}

	var err error
	if n.ProposalValue, err = decFromStringPtr(proposal); err != nil {
		return err
	}
	if n.ClosingValue, err = decFromStringPtr(closing); err != nil {
		return err
	}
	return nil
}

func decFromStringPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decPtrToString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
