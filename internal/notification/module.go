// Package notification turns domain events into broker-facing messages.
// Delivery is best-effort: a failure is recorded on the outbox row and never
// reaches the publishing transaction.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/email"
	domainevents "imobcrm_backend/internal/events"
	"imobcrm_backend/internal/notification/outbox"
	"imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
)

// Templates a queued email row can render.
const (
	TemplateNegotiationAssigned = "negotiation_assigned"
	TemplateNegotiationClosed   = "negotiation_closed"
)

// WhatsAppSender delivers a plain text message to a phone number.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

type whatsAppOutboxPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type emailOutboxPayload struct {
	ToEmail       string `json:"toEmail"`
	BrokerName    string `json:"brokerName"`
	PropertyTitle string `json:"propertyTitle"`
	LeadName      string `json:"leadName,omitempty"`
	ClosingValue  string `json:"closingValue,omitempty"`
}

// Module handles notification-related event subscriptions.
type Module struct {
	pool     *pgxpool.Pool
	sender   email.Sender
	whatsapp WhatsAppSender
	outbox   *outbox.Repository
	log      *logger.Logger
}

// New creates the notification module. The sender must not be nil; use
// email.NoopSender when SMTP is not configured.
func New(pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) *Module {
	return &Module{
		pool:   pool,
		sender: sender,
		outbox: outbox.New(pool),
		log:    log,
	}
}

// SetWhatsAppSender enables the WhatsApp channel. A nil sender leaves the
// channel disabled.
func (m *Module) SetWhatsAppSender(sender WhatsAppSender) {
	m.whatsapp = sender
}

// RegisterHandlers subscribes to the domain events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(domainevents.NegotiationCreated{}.EventName(), m)
	bus.Subscribe(domainevents.NegotiationClosed{}.EventName(), m)
	bus.Subscribe(domainevents.NotificationOutboxDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case domainevents.NegotiationCreated:
		return m.handleNegotiationCreated(ctx, e)
	case domainevents.NegotiationClosed:
		return m.handleNegotiationClosed(ctx, e)
	case domainevents.NotificationOutboxDue:
		return m.handleOutboxDue(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

// brokerContact holds the resolved contact fields of a broker.
type brokerContact struct {
	Name  string
	Email string
	Phone string
}

func (m *Module) resolveBrokerContact(ctx context.Context, tenantID, brokerID uuid.UUID) (brokerContact, bool) {
	if m.pool == nil || brokerID == uuid.Nil {
		return brokerContact{}, false
	}
	var c brokerContact
	err := m.pool.QueryRow(ctx,
		`SELECT name, email, phone FROM brokers WHERE id = $1 AND tenant_id = $2`,
		brokerID, tenantID,
	).Scan(&c.Name, &c.Email, &c.Phone)
	if err != nil {
		return brokerContact{}, false
	}
	return c, true
}

func (m *Module) resolveLeadName(ctx context.Context, tenantID, leadID uuid.UUID) string {
	if m.pool == nil {
		return ""
	}
	var name string
	if err := m.pool.QueryRow(ctx,
		`SELECT name FROM leads WHERE id = $1 AND tenant_id = $2`,
		leadID, tenantID,
	).Scan(&name); err != nil {
		return ""
	}
	return name
}

func (m *Module) resolvePropertyTitle(ctx context.Context, tenantID, propertyID uuid.UUID) string {
	if m.pool == nil {
		return ""
	}
	var title string
	if err := m.pool.QueryRow(ctx,
		`SELECT title FROM properties WHERE id = $1 AND tenant_id = $2`,
		propertyID, tenantID,
	).Scan(&title); err != nil {
		return ""
	}
	return title
}

func (m *Module) handleNegotiationCreated(ctx context.Context, e domainevents.NegotiationCreated) error {
	contact, ok := m.resolveBrokerContact(ctx, e.TenantID, e.BrokerID)
	if !ok {
		m.log.Warn("broker contact unresolved, skipping assignment notification",
			"negotiation_id", e.NegotiationID, "broker_id", e.BrokerID)
		return nil
	}

	leadName := m.resolveLeadName(ctx, e.TenantID, e.LeadID)
	propertyTitle := m.resolvePropertyTitle(ctx, e.TenantID, e.PropertyID)

	if contact.Phone != "" {
		message := fmt.Sprintf(
			"Olá %s! Uma nova negociação do imóvel %s com o lead %s foi atribuída a você.",
			contact.Name, propertyTitle, leadName,
		)
		m.enqueueWhatsApp(ctx, e.TenantID, contact.Phone, message)
	}

	if contact.Email != "" {
		m.enqueueEmail(ctx, e.TenantID, TemplateNegotiationAssigned, emailOutboxPayload{
			ToEmail:       contact.Email,
			BrokerName:    contact.Name,
			PropertyTitle: propertyTitle,
			LeadName:      leadName,
		})
	}

	return nil
}

func (m *Module) handleNegotiationClosed(ctx context.Context, e domainevents.NegotiationClosed) error {
	contact, ok := m.resolveBrokerContact(ctx, e.TenantID, e.BrokerID)
	if !ok {
		m.log.Warn("broker contact unresolved, skipping close notification",
			"negotiation_id", e.NegotiationID, "broker_id", e.BrokerID)
		return nil
	}

	propertyTitle := m.resolvePropertyTitle(ctx, e.TenantID, e.PropertyID)
	closingValue := formatBRL(e.ClosingValue)

	if contact.Phone != "" {
		message := fmt.Sprintf(
			"Parabéns %s! A negociação do imóvel %s foi fechada por %s.",
			contact.Name, propertyTitle, closingValue,
		)
		m.enqueueWhatsApp(ctx, e.TenantID, contact.Phone, message)
	}

	if contact.Email != "" {
		m.enqueueEmail(ctx, e.TenantID, TemplateNegotiationClosed, emailOutboxPayload{
			ToEmail:       contact.Email,
			BrokerName:    contact.Name,
			PropertyTitle: propertyTitle,
			ClosingValue:  closingValue,
		})
	}

	return nil
}

func (m *Module) enqueueWhatsApp(ctx context.Context, tenantID uuid.UUID, phone, message string) {
	_, err := m.outbox.Insert(ctx, outbox.InsertParams{
		TenantID: tenantID,
		Kind:     outbox.KindWhatsApp,
		Payload:  whatsAppOutboxPayload{Phone: phone, Message: message},
		RunAt:    time.Now().UTC(),
	})
	if err != nil {
		m.log.Warn("failed to queue whatsapp notification", "error", err)
	}
}

func (m *Module) enqueueEmail(ctx context.Context, tenantID uuid.UUID, template string, payload emailOutboxPayload) {
	_, err := m.outbox.Insert(ctx, outbox.InsertParams{
		TenantID: tenantID,
		Kind:     outbox.KindEmail,
		Template: template,
		Payload:  payload,
		RunAt:    time.Now().UTC(),
	})
	if err != nil {
		m.log.Warn("failed to queue email notification", "error", err)
	}
}

// handleOutboxDue delivers one claimed outbox row. A delivery failure is
// recorded on the row and swallowed so the task is not retried.
func (m *Module) handleOutboxDue(ctx context.Context, e domainevents.NotificationOutboxDue) error {
	rec, err := m.outbox.GetByID(ctx, e.OutboxID)
	if err != nil {
		return err
	}
	if rec.Status != outbox.StatusEnqueued {
		return nil
	}

	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	if err := m.deliver(ctx, rec); err != nil {
		m.log.Warn("notification delivery failed", "outbox_id", rec.ID, "kind", rec.Kind, "error", err)
		return m.outbox.MarkFailed(ctx, rec.ID, err.Error())
	}

	return m.outbox.MarkSucceeded(ctx, rec.ID)
}

func (m *Module) deliver(ctx context.Context, rec outbox.Record) error {
	switch rec.Kind {
	case outbox.KindWhatsApp:
		if m.whatsapp == nil {
			return fmt.Errorf("whatsapp channel not configured")
		}
		var payload whatsAppOutboxPayload
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal whatsapp payload: %w", err)
		}
		return m.whatsapp.SendMessage(ctx, payload.Phone, payload.Message)

	case outbox.KindEmail:
		var payload emailOutboxPayload
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal email payload: %w", err)
		}
		switch rec.Template {
		case TemplateNegotiationAssigned:
			return m.sender.SendNegotiationAssignedEmail(ctx, payload.ToEmail, payload.BrokerName, payload.PropertyTitle, payload.LeadName)
		case TemplateNegotiationClosed:
			return m.sender.SendNegotiationClosedEmail(ctx, payload.ToEmail, payload.BrokerName, payload.PropertyTitle, payload.ClosingValue)
		default:
			return fmt.Errorf("unknown email template %q", rec.Template)
		}

	default:
		return fmt.Errorf("unknown outbox kind %q", rec.Kind)
	}
}

func formatBRL(value decimal.Decimal) string {
	return "R$ " + value.StringFixed(2)
}
