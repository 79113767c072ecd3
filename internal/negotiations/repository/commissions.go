package repository

import (
	"context"
	"errors"
	"time"

	"imobcrm_backend/internal/negotiations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CommissionRecord is one immutable row of the commission ledger.
type CommissionRecord struct {
	ID            uuid.UUID
	NegotiationID uuid.UUID
	TenantID      uuid.UUID
	BrokerID      uuid.UUID
	Percent       decimal.Decimal
	Amount        decimal.Decimal
	Tipo          domain.CommissionTipo
	CreatedAt     time.Time
}

// appendCommissionTx inserts one ledger row inside the caller's transaction.
func appendCommissionTx(ctx context.Context, tx pgx.Tx, tenantID, negotiationID uuid.UUID, params CommissionParams) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO negotiation_commissions (negotiation_id, tenant_id, broker_id, percent, amount, tipo)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6)`,
		negotiationID, tenantID, params.BrokerID,
		params.Percent.String(), params.Amount.String(), string(params.Tipo),
	)
	return err
}

// AppendCommission appends a commission record and its COMISSAO_ADICIONADA
// timeline entry. The root row is locked first so the append serializes with
// concurrent transitions on the same negotiation.
func (r *Repository) AppendCommission(ctx context.Context, tenantID, negotiationID uuid.UUID, params CommissionParams) (Negotiation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Negotiation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var n Negotiation
	row := tx.QueryRow(ctx, getNegotiationQuery+` FOR UPDATE`, negotiationID, tenantID)
	if err := scanNegotiation(row, &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Negotiation{}, ErrNotFound
		}
		return Negotiation{}, err
	}

	if err := appendCommissionTx(ctx, tx, tenantID, negotiationID, params); err != nil {
		return Negotiation{}, err
	}

	payload, err := domain.EncodeEventPayload(domain.EventComissaoAdicionada, domain.ComissaoPayload{
		BrokerID: params.BrokerID,
		Percent:  params.Percent,
		Value:    params.Amount,
		Tipo:     params.Tipo,
	})
	if err != nil {
		return Negotiation{}, err
	}
	if err := appendEventTx(ctx, tx, tenantID, negotiationID, domain.EventComissaoAdicionada, payload); err != nil {
		return Negotiation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Negotiation{}, err
	}
	return n, nil
}

const listCommissionsQuery = `
	SELECT id, negotiation_id, tenant_id, broker_id, percent::text, amount::text, tipo, created_at
	FROM negotiation_commissions
	WHERE negotiation_id = $1 AND tenant_id = $2
	ORDER BY created_at ASC, id ASC`

// ListCommissions returns the commission ledger in append order.
func (r *Repository) ListCommissions(ctx context.Context, tenantID, negotiationID uuid.UUID) ([]CommissionRecord, error) {
	rows, err := r.pool.Query(ctx, listCommissionsQuery, negotiationID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]CommissionRecord, 0)
	for rows.Next() {
		var rec CommissionRecord
		var percent, amount, tipo string
		if err := rows.Scan(
			&rec.ID, &rec.NegotiationID, &rec.TenantID, &rec.BrokerID,
			&percent, &amount, &tipo, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if rec.Percent, err = decimal.NewFromString(percent); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		rec.Tipo = domain.CommissionTipo(tipo)
		items = append(items, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
