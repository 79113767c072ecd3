package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LeadEventKind discriminates lead event log entries.
type LeadEventKind string

const (
	LeadEventCriacao            LeadEventKind = "CRIACAO"
	LeadEventScoreRecalculado   LeadEventKind = "SCORE_RECALCULADO"
	LeadEventAtribuicaoCorretor LeadEventKind = "ATRIBUICAO_CORRETOR"
)

// LeadEvent is one immutable entry of a lead's event log.
type LeadEvent struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	TenantID  uuid.UUID
	Seq       int64
	Kind      LeadEventKind
	Payload   json.RawMessage
	CreatedAt time.Time
}

// appendLeadEventTx inserts one event row inside the caller's transaction.
func appendLeadEventTx(ctx context.Context, tx pgx.Tx, tenantID, leadID uuid.UUID, kind LeadEventKind, payload json.RawMessage) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_events (lead_id, tenant_id, event_kind, payload)
		VALUES ($1, $2, $3, $4)`,
		leadID, tenantID, string(kind), payload,
	)
	return err
}

const listLeadTimelineQuery = `
	SELECT id, lead_id, tenant_id, seq, event_kind, payload, created_at
	FROM lead_events
	WHERE lead_id = $1 AND tenant_id = $2
	ORDER BY seq ASC`

// ListTimeline returns the full event log of a lead in append order.
func (r *Repository) ListTimeline(ctx context.Context, tenantID, leadID uuid.UUID) ([]LeadEvent, error) {
	rows, err := r.pool.Query(ctx, listLeadTimelineQuery, leadID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]LeadEvent, 0)
	for rows.Next() {
		var event LeadEvent
		var kind string
		if err := rows.Scan(
			&event.ID, &event.LeadID, &event.TenantID, &event.Seq,
			&kind, &event.Payload, &event.CreatedAt,
		); err != nil {
			return nil, err
		}
		event.Kind = LeadEventKind(kind)
		items = append(items, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
