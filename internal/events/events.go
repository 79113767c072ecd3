// Package events defines the domain events exchanged between modules over
// the platform event bus. Events are published after the owning transaction
// commits; subscribers must tolerate at-most-once delivery.
package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/platform/events"
)

const (
	NegotiationCreatedName       = "negotiation.created"
	NegotiationStatusChangedName = "negotiation.status_changed"
	NegotiationClosedName        = "negotiation.closed"
	NegotiationLostName          = "negotiation.lost"
	CommissionAddedName          = "negotiation.commission_added"
	LeadCreatedName              = "lead.created"
	LeadScoreChangedName         = "lead.score_changed"
	NotificationOutboxDueName    = "notification.outbox_due"
)

// NegotiationCreated fires when a new negotiation enters the pipeline.
type NegotiationCreated struct {
	events.BaseEvent
	TenantID      uuid.UUID `json:"tenant_id"`
	NegotiationID uuid.UUID `json:"negotiation_id"`
	LeadID        uuid.UUID `json:"lead_id"`
	PropertyID    uuid.UUID `json:"property_id"`
	BrokerID      uuid.UUID `json:"broker_id"`
}

func (NegotiationCreated) EventName() string { return NegotiationCreatedName }

// NegotiationStatusChanged fires on every pipeline transition, including
// transitions into terminal statuses.
type NegotiationStatusChanged struct {
	events.BaseEvent
	TenantID       uuid.UUID `json:"tenant_id"`
	NegotiationID  uuid.UUID `json:"negotiation_id"`
	BrokerID       uuid.UUID `json:"broker_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
}

func (NegotiationStatusChanged) EventName() string { return NegotiationStatusChangedName }

// NegotiationClosed fires when a negotiation reaches FECHADO.
type NegotiationClosed struct {
	events.BaseEvent
	TenantID      uuid.UUID       `json:"tenant_id"`
	NegotiationID uuid.UUID       `json:"negotiation_id"`
	PropertyID    uuid.UUID       `json:"property_id"`
	BrokerID      uuid.UUID       `json:"broker_id"`
	ClosingValue  decimal.Decimal `json:"closing_value"`
}

func (NegotiationClosed) EventName() string { return NegotiationClosedName }

// NegotiationLost fires when a negotiation reaches PERDIDO.
type NegotiationLost struct {
	events.BaseEvent
	TenantID      uuid.UUID `json:"tenant_id"`
	NegotiationID uuid.UUID `json:"negotiation_id"`
	BrokerID      uuid.UUID `json:"broker_id"`
	LossReason    string    `json:"loss_reason"`
}

func (NegotiationLost) EventName() string { return NegotiationLostName }

// CommissionAdded fires when a commission record is appended, either by a
// close or by an explicit append.
type CommissionAdded struct {
	events.BaseEvent
	TenantID      uuid.UUID       `json:"tenant_id"`
	NegotiationID uuid.UUID       `json:"negotiation_id"`
	BrokerID      uuid.UUID       `json:"broker_id"`
	Amount        decimal.Decimal `json:"amount"`
	Tipo          string          `json:"tipo"`
}

func (CommissionAdded) EventName() string { return CommissionAddedName }

// LeadCreated fires when a lead is registered and scored.
type LeadCreated struct {
	events.BaseEvent
	TenantID    uuid.UUID `json:"tenant_id"`
	LeadID      uuid.UUID `json:"lead_id"`
	Score       int       `json:"score"`
	Temperature string    `json:"temperature"`
}

func (LeadCreated) EventName() string { return LeadCreatedName }

// LeadScoreChanged fires when a recalculation produced a different score.
type LeadScoreChanged struct {
	events.BaseEvent
	TenantID      uuid.UUID `json:"tenant_id"`
	LeadID        uuid.UUID `json:"lead_id"`
	PreviousScore int       `json:"previous_score"`
	Score         int       `json:"score"`
	Temperature   string    `json:"temperature"`
}

func (LeadScoreChanged) EventName() string { return LeadScoreChangedName }

// NotificationOutboxDue fires when the scheduler hands a claimed outbox row
// to the notification module for delivery.
type NotificationOutboxDue struct {
	events.BaseEvent
	TenantID uuid.UUID `json:"tenant_id"`
	OutboxID uuid.UUID `json:"outbox_id"`
}

func (NotificationOutboxDue) EventName() string { return NotificationOutboxDueName }
