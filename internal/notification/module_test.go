package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainevents "imobcrm_backend/internal/events"
	"imobcrm_backend/internal/notification/outbox"
	"imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
)

type testSender struct {
	assignedCalls int
	closedCalls   int
	lastToEmail   string
	lastValue     string
}

func (s *testSender) SendNegotiationAssignedEmail(_ context.Context, toEmail, _, _, _ string) error {
	s.assignedCalls++
	s.lastToEmail = toEmail
	return nil
}

func (s *testSender) SendNegotiationClosedEmail(_ context.Context, toEmail, _, _, closingValue string) error {
	s.closedCalls++
	s.lastToEmail = toEmail
	s.lastValue = closingValue
	return nil
}

func (s *testSender) SendCustomEmail(context.Context, string, string, string) error { return nil }

type testWhatsApp struct {
	phones   []string
	messages []string
}

func (w *testWhatsApp) SendMessage(_ context.Context, phone, message string) error {
	w.phones = append(w.phones, phone)
	w.messages = append(w.messages, message)
	return nil
}

func mustPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestDeliverRoutesEmailTemplates(t *testing.T) {
	sender := &testSender{}
	m := New(nil, sender, logger.New("development"))

	err := m.deliver(context.Background(), outbox.Record{
		Kind:     outbox.KindEmail,
		Template: TemplateNegotiationAssigned,
		Payload: mustPayload(t, emailOutboxPayload{
			ToEmail:       "broker@example.com",
			BrokerName:    "Ana",
			PropertyTitle: "Apartamento Centro",
			LeadName:      "João",
		}),
	})
	if err != nil {
		t.Fatalf("deliver assigned email returned error: %v", err)
	}
	if sender.assignedCalls != 1 {
		t.Fatalf("expected 1 assigned email, got %d", sender.assignedCalls)
	}
	if sender.lastToEmail != "broker@example.com" {
		t.Fatalf("unexpected recipient %q", sender.lastToEmail)
	}

	err = m.deliver(context.Background(), outbox.Record{
		Kind:     outbox.KindEmail,
		Template: TemplateNegotiationClosed,
		Payload: mustPayload(t, emailOutboxPayload{
			ToEmail:       "broker@example.com",
			BrokerName:    "Ana",
			PropertyTitle: "Apartamento Centro",
			ClosingValue:  "R$ 300000.00",
		}),
	})
	if err != nil {
		t.Fatalf("deliver closed email returned error: %v", err)
	}
	if sender.closedCalls != 1 {
		t.Fatalf("expected 1 closed email, got %d", sender.closedCalls)
	}
	if sender.lastValue != "R$ 300000.00" {
		t.Fatalf("unexpected closing value %q", sender.lastValue)
	}
}

func TestDeliverRejectsUnknownEmailTemplate(t *testing.T) {
	m := New(nil, &testSender{}, logger.New("development"))

	err := m.deliver(context.Background(), outbox.Record{
		Kind:     outbox.KindEmail,
		Template: "something_else",
		Payload:  mustPayload(t, emailOutboxPayload{ToEmail: "broker@example.com"}),
	})
	if err == nil {
		t.Fatal("expected unknown template to be rejected")
	}
}

func TestDeliverWhatsAppRequiresConfiguredChannel(t *testing.T) {
	m := New(nil, &testSender{}, logger.New("development"))

	rec := outbox.Record{
		Kind:    outbox.KindWhatsApp,
		Payload: mustPayload(t, whatsAppOutboxPayload{Phone: "+5511999999999", Message: "oi"}),
	}

	if err := m.deliver(context.Background(), rec); err == nil {
		t.Fatal("expected delivery without a whatsapp sender to fail")
	}

	wa := &testWhatsApp{}
	m.SetWhatsAppSender(wa)
	if err := m.deliver(context.Background(), rec); err != nil {
		t.Fatalf("deliver whatsapp returned error: %v", err)
	}
	if len(wa.phones) != 1 || wa.phones[0] != "+5511999999999" {
		t.Fatalf("unexpected phones %v", wa.phones)
	}
}

func TestHandleNegotiationCreatedSkipsWhenBrokerContactUnresolved(t *testing.T) {
	m := New(nil, &testSender{}, logger.New("development"))

	err := m.Handle(context.Background(), domainevents.NegotiationCreated{
		BaseEvent:     events.NewBaseEvent(),
		TenantID:      uuid.New(),
		NegotiationID: uuid.New(),
		LeadID:        uuid.New(),
		PropertyID:    uuid.New(),
		BrokerID:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected unresolved broker contact to be skipped, got %v", err)
	}
}

func TestFormatBRLUsesTwoDecimals(t *testing.T) {
	got := formatBRL(decimal.RequireFromString("300000"))
	if got != "R$ 300000.00" {
		t.Fatalf("unexpected formatted value %q", got)
	}
}
