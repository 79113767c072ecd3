package repository

import (
	"context"
	"encoding/json"
	"time"

	"imobcrm_backend/internal/negotiations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TimelineEvent is one immutable entry of a negotiation's event log.
// Entries are only ever inserted; there is no update or delete path.
type TimelineEvent struct {
	ID            uuid.UUID
	NegotiationID uuid.UUID
	TenantID      uuid.UUID
	Seq           int64
	Kind          domain.EventKind
	Payload       json.RawMessage
	CreatedAt     time.Time
}

const timelineSelectCols = `
	id, negotiation_id, tenant_id, seq, event_kind, payload, created_at`

// appendEventTx inserts one timeline row inside the caller's transaction.
// Ordering comes from the seq sequence, not from rewriting any collection.
func appendEventTx(ctx context.Context, tx pgx.Tx, tenantID, negotiationID uuid.UUID, kind domain.EventKind, payload json.RawMessage) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO negotiation_events (negotiation_id, tenant_id, event_kind, payload)
		VALUES ($1, $2, $3, $4)`,
		negotiationID, tenantID, string(kind), payload,
	)
	return err
}

const listTimelineQuery = `
	SELECT` + timelineSelectCols + `
	FROM negotiation_events
	WHERE negotiation_id = $1 AND tenant_id = $2
	ORDER BY seq ASC`

// ListTimeline returns the full event log of a negotiation in append order.
func (r *Repository) ListTimeline(ctx context.Context, tenantID, negotiationID uuid.UUID) ([]TimelineEvent, error) {
	rows, err := r.pool.Query(ctx, listTimelineQuery, negotiationID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TimelineEvent, 0)
	for rows.Next() {
		var event TimelineEvent
		var kind string
		if err := rows.Scan(
			&event.ID, &event.NegotiationID, &event.TenantID, &event.Seq,
			&kind, &event.Payload, &event.CreatedAt,
		); err != nil {
			return nil, err
		}
		event.Kind = domain.EventKind(kind)
		items = append(items, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
