package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/negotiations/domain"
	"imobcrm_backend/internal/negotiations/repository"
	"imobcrm_backend/internal/negotiations/transport"
	propdomain "imobcrm_backend/internal/properties/domain"
	"imobcrm_backend/platform/apperr"
	platformevents "imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
)

// fakeStore emulates the persistence contract in memory, including the
// status precondition on transitions and the active-pair uniqueness rule.
type fakeStore struct {
	mu           sync.Mutex
	negotiations map[uuid.UUID]repository.Negotiation
	timeline     map[uuid.UUID][]domain.EventKind
	commissions  map[uuid.UUID][]repository.CommissionParams
	propertySets []repository.PropertyStatusUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		negotiations: make(map[uuid.UUID]repository.Negotiation),
		timeline:     make(map[uuid.UUID][]domain.EventKind),
		commissions:  make(map[uuid.UUID][]repository.CommissionParams),
	}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateParams) (repository.Negotiation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.negotiations {
		if n.TenantID == params.TenantID && n.LeadID == params.LeadID &&
			n.PropertyID == params.PropertyID && !domain.IsTerminal(n.Status) {
			return repository.Negotiation{}, repository.ErrDuplicateActive
		}
	}

	n := repository.Negotiation{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		LeadID:        params.LeadID,
		PropertyID:    params.PropertyID,
		BrokerID:      params.BrokerID,
		Status:        domain.StatusContato,
		ProposalValue: params.ProposalValue,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.negotiations[n.ID] = n
	f.timeline[n.ID] = append(f.timeline[n.ID], domain.EventCriacao)
	return n, nil
}

func (f *fakeStore) GetByID(_ context.Context, tenantID, id uuid.UUID) (repository.Negotiation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.negotiations[id]
	if !ok || n.TenantID != tenantID {
		return repository.Negotiation{}, repository.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) List(_ context.Context, tenantID uuid.UUID, _ repository.ListFilters) ([]repository.Negotiation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []repository.Negotiation
	for _, n := range f.negotiations {
		if n.TenantID == tenantID {
			items = append(items, n)
		}
	}
	return items, len(items), nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, params repository.TransitionParams) (repository.Negotiation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.negotiations[params.ID]
	if !ok || n.TenantID != params.TenantID {
		return repository.Negotiation{}, repository.ErrNotFound
	}
	if n.Status != params.FromStatus {
		return repository.Negotiation{}, repository.ErrStaleStatus
	}

	n.Status = params.ToStatus
	if params.LossReason != nil {
		n.LossReason = params.LossReason
	}
	if params.ClosingValue != nil {
		n.ClosingValue = params.ClosingValue
	}
	n.UpdatedAt = time.Now()
	f.negotiations[n.ID] = n
	f.timeline[n.ID] = append(f.timeline[n.ID], domain.EventMudancaStatus)

	if params.Commission != nil {
		f.commissions[n.ID] = append(f.commissions[n.ID], *params.Commission)
		f.timeline[n.ID] = append(f.timeline[n.ID], domain.EventComissaoAdicionada)
	}
	if params.Property != nil {
		f.propertySets = append(f.propertySets, *params.Property)
	}
	return n, nil
}

func (f *fakeStore) DeleteInStatus(_ context.Context, tenantID, id uuid.UUID, allowed []domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.negotiations[id]
	if !ok || n.TenantID != tenantID {
		return repository.ErrNotFound
	}
	for _, s := range allowed {
		if n.Status == s {
			delete(f.negotiations, id)
			return nil
		}
	}
	return repository.ErrStaleStatus
}

func (f *fakeStore) AppendCommission(_ context.Context, tenantID, negotiationID uuid.UUID, params repository.CommissionParams) (repository.Negotiation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.negotiations[negotiationID]
	if !ok || n.TenantID != tenantID {
		return repository.Negotiation{}, repository.ErrNotFound
	}
	f.commissions[negotiationID] = append(f.commissions[negotiationID], params)
	f.timeline[negotiationID] = append(f.timeline[negotiationID], domain.EventComissaoAdicionada)
	return n, nil
}

func (f *fakeStore) AppendDocument(_ context.Context, tenantID, negotiationID uuid.UUID, params repository.DocumentParams) (repository.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.negotiations[negotiationID]
	if !ok || n.TenantID != tenantID {
		return repository.DocumentRecord{}, repository.ErrNotFound
	}
	f.timeline[negotiationID] = append(f.timeline[negotiationID], domain.EventDocumentoAdicionado)
	return repository.DocumentRecord{
		ID:            uuid.New(),
		NegotiationID: negotiationID,
		TenantID:      tenantID,
		FileName:      params.FileName,
		FileKey:       params.FileKey,
		ContentType:   params.ContentType,
		SizeBytes:     params.SizeBytes,
		CreatedAt:     time.Now(),
	}, nil
}

func (f *fakeStore) GetDocument(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (repository.DocumentRecord, error) {
	return repository.DocumentRecord{}, repository.ErrNotFound
}

func (f *fakeStore) ListTimeline(_ context.Context, tenantID, negotiationID uuid.UUID) ([]repository.TimelineEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]repository.TimelineEvent, 0, len(f.timeline[negotiationID]))
	for i, kind := range f.timeline[negotiationID] {
		out = append(out, repository.TimelineEvent{
			ID:            uuid.New(),
			NegotiationID: negotiationID,
			TenantID:      tenantID,
			Seq:           int64(i + 1),
			Kind:          kind,
		})
	}
	return out, nil
}

func (f *fakeStore) ListCommissions(_ context.Context, tenantID, negotiationID uuid.UUID) ([]repository.CommissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]repository.CommissionRecord, 0, len(f.commissions[negotiationID]))
	for _, c := range f.commissions[negotiationID] {
		out = append(out, repository.CommissionRecord{
			ID:            uuid.New(),
			NegotiationID: negotiationID,
			TenantID:      tenantID,
			BrokerID:      c.BrokerID,
			Percent:       c.Percent,
			Amount:        c.Amount,
			Tipo:          c.Tipo,
		})
	}
	return out, nil
}

func (f *fakeStore) ListDocuments(context.Context, uuid.UUID, uuid.UUID) ([]repository.DocumentRecord, error) {
	return nil, nil
}

func (f *fakeStore) Stats(context.Context, uuid.UUID, repository.StatsFilters) (repository.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := repository.Stats{CountByStatus: make(map[domain.Status]int)}
	for _, n := range f.negotiations {
		stats.CountByStatus[n.Status]++
		stats.Total++
		if n.Status == domain.StatusFechado {
			stats.Closed++
			if n.ClosingValue != nil {
				stats.ClosedSum = stats.ClosedSum.Add(*n.ClosingValue)
			}
		}
	}
	return stats, nil
}

type fakeProperties struct {
	mu    sync.Mutex
	items map[uuid.UUID]PropertyView
}

func (f *fakeProperties) GetByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (PropertyView, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	return p, ok, nil
}

type fakeBrokers struct {
	items map[uuid.UUID]BrokerView
}

func (f *fakeBrokers) GetByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (BrokerView, bool, error) {
	b, ok := f.items[id]
	return b, ok, nil
}

type fakeLeads struct {
	ids map[uuid.UUID]bool
}

func (f *fakeLeads) Exists(_ context.Context, _ uuid.UUID, id uuid.UUID) (bool, error) {
	return f.ids[id], nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []platformevents.Event
}

func (b *recordingBus) Publish(_ context.Context, event platformevents.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event platformevents.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, platformevents.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventName()
	}
	return out
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	bus      *recordingBus
	tenantID uuid.UUID
	leadID   uuid.UUID
	propID   uuid.UUID
	brokerID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    newFakeStore(),
		bus:      &recordingBus{},
		tenantID: uuid.New(),
		leadID:   uuid.New(),
		propID:   uuid.New(),
		brokerID: uuid.New(),
	}

	properties := &fakeProperties{items: map[uuid.UUID]PropertyView{
		f.propID: {ID: f.propID, Status: propdomain.StatusDisponivel, Category: propdomain.CategoryVenda},
	}}
	brokers := &fakeBrokers{items: map[uuid.UUID]BrokerView{
		f.brokerID: {ID: f.brokerID, CommissionPercent: decimal.NewFromInt(5)},
	}}
	leads := &fakeLeads{ids: map[uuid.UUID]bool{f.leadID: true}}

	f.svc = New(f.store, properties, brokers, leads, f.bus, logger.New("test"))
	return f
}

func (f *fixture) create(t *testing.T, proposal *decimal.Decimal) transport.NegotiationResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.tenantID, transport.CreateNegotiationRequest{
		LeadID:        f.leadID,
		PropertyID:    f.propID,
		BrokerID:      f.brokerID,
		ProposalValue: proposal,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return resp
}

func (f *fixture) mustStatus(t *testing.T, id uuid.UUID, want domain.Status) {
	t.Helper()
	n, err := f.store.GetByID(context.Background(), f.tenantID, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n.Status != want {
		t.Fatalf("status = %s, want %s", n.Status, want)
	}
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestCreateStartsInContatoWithCreationEvent(t *testing.T) {
	f := newFixture(t)

	resp := f.create(t, decPtr("450000"))

	if resp.Status != string(domain.StatusContato) {
		t.Fatalf("status = %s, want CONTATO", resp.Status)
	}
	events := f.store.timeline[resp.ID]
	if len(events) != 1 || events[0] != domain.EventCriacao {
		t.Fatalf("timeline = %v, want one CRIACAO entry", events)
	}
	if names := f.bus.names(); len(names) != 1 || names[0] != "negotiation.created" {
		t.Fatalf("published = %v", names)
	}
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  transport.CreateNegotiationRequest
	}{
		{"lead", transport.CreateNegotiationRequest{LeadID: uuid.New(), PropertyID: f.propID, BrokerID: f.brokerID}},
		{"property", transport.CreateNegotiationRequest{LeadID: f.leadID, PropertyID: uuid.New(), BrokerID: f.brokerID}},
		{"broker", transport.CreateNegotiationRequest{LeadID: f.leadID, PropertyID: f.propID, BrokerID: uuid.New()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.tenantID, tc.req)
			if !apperr.Is(err, apperr.KindNotFound) {
				t.Fatalf("err = %v, want not-found", err)
			}
		})
	}
}

func TestCreateRejectsUnavailableProperty(t *testing.T) {
	f := newFixture(t)

	soldID := uuid.New()
	props := f.svc.properties.(*fakeProperties)
	props.items[soldID] = PropertyView{ID: soldID, Status: propdomain.StatusVendido, Category: propdomain.CategoryVenda}

	_, err := f.svc.Create(context.Background(), f.tenantID, transport.CreateNegotiationRequest{
		LeadID: f.leadID, PropertyID: soldID, BrokerID: f.brokerID,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestCreateRejectsDuplicateActivePair(t *testing.T) {
	f := newFixture(t)

	f.create(t, nil)

	_, err := f.svc.Create(context.Background(), f.tenantID, transport.CreateNegotiationRequest{
		LeadID: f.leadID, PropertyID: f.propID, BrokerID: f.brokerID,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestChangeStatusFollowsPipelineEdges(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, nil)
	ctx := context.Background()

	if _, err := f.svc.ChangeStatus(ctx, f.tenantID, resp.ID, transport.ChangeStatusRequest{Status: "VISITA_AGENDADA"}); err != nil {
		t.Fatalf("to VISITA_AGENDADA: %v", err)
	}

	// No direct edge from VISITA_AGENDADA to PROPOSTA; the visit must be
	// completed first. Status stays put on rejection.
	_, err := f.svc.ChangeStatus(ctx, f.tenantID, resp.ID, transport.ChangeStatusRequest{Status: "PROPOSTA"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	f.mustStatus(t, resp.ID, domain.StatusVisitaAgendada)
}

func TestChangeStatusRejectsUnknownTarget(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, nil)

	_, err := f.svc.ChangeStatus(context.Background(), f.tenantID, resp.ID, transport.ChangeStatusRequest{Status: "EM_ANDAMENTO"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestLosingRequiresReason(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, nil)
	ctx := context.Background()

	_, err := f.svc.ChangeStatus(ctx, f.tenantID, resp.ID, transport.ChangeStatusRequest{Status: "PERDIDO"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	f.mustStatus(t, resp.ID, domain.StatusContato)

	out, err := f.svc.ChangeStatus(ctx, f.tenantID, resp.ID, transport.ChangeStatusRequest{
		Status: "PERDIDO", LossReason: "cliente desistiu",
	})
	if err != nil {
		t.Fatalf("to PERDIDO: %v", err)
	}
	if out.LossReason == nil || *out.LossReason != "cliente desistiu" {
		t.Fatalf("loss reason = %v", out.LossReason)
	}
}

func advanceToContrato(t *testing.T, f *fixture, id uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	for _, target := range []string{"VISITA_AGENDADA", "VISITA_REALIZADA", "PROPOSTA", "CONTRATO"} {
		if _, err := f.svc.ChangeStatus(ctx, f.tenantID, id, transport.ChangeStatusRequest{Status: target}); err != nil {
			t.Fatalf("to %s: %v", target, err)
		}
	}
}

func TestClosingRequiresAValue(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, nil)
	advanceToContrato(t, f, resp.ID)

	_, err := f.svc.ChangeStatus(context.Background(), f.tenantID, resp.ID, transport.ChangeStatusRequest{Status: "FECHADO"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	f.mustStatus(t, resp.ID, domain.StatusContrato)
}

func TestClosingFallsBackToProposalValue(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, decPtr("300000"))
	advanceToContrato(t, f, resp.ID)

	out, err := f.svc.ChangeStatus(context.Background(), f.tenantID, resp.ID, transport.ChangeStatusRequest{Status: "FECHADO"})
	if err != nil {
		t.Fatalf("to FECHADO: %v", err)
	}
	if out.ClosingValue == nil || !out.ClosingValue.Equal(decimal.RequireFromString("300000")) {
		t.Fatalf("closing value = %v, want 300000", out.ClosingValue)
	}
}

func TestClosingAppendsCommissionAndSellsProperty(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, nil)
	advanceToContrato(t, f, resp.ID)

	_, err := f.svc.ChangeStatus(context.Background(), f.tenantID, resp.ID, transport.ChangeStatusRequest{
		Status: "FECHADO", ClosingValue: decPtr("300000"),
	})
	if err != nil {
		t.Fatalf("to FECHADO: %v", err)
	}

	ledger := f.store.commissions[resp.ID]
	if len(ledger) != 1 {
		t.Fatalf("commission records = %d, want 1", len(ledger))
	}
	// 5% of 300000
	if !ledger[0].Amount.Equal(decimal.RequireFromString("15000")) {
		t.Fatalf("commission = %s, want 15000", ledger[0].Amount)
	}
	if ledger[0].Tipo != domain.ComissaoVenda {
		t.Fatalf("tipo = %s, want VENDA", ledger[0].Tipo)
	}

	if len(f.store.propertySets) != 1 || f.store.propertySets[0].NewStatus != string(propdomain.StatusVendido) {
		t.Fatalf("property updates = %v, want one VENDIDO", f.store.propertySets)
	}
}

func TestClosingRentalMarksPropertyAlugado(t *testing.T) {
	f := newFixture(t)

	rentalID := uuid.New()
	props := f.svc.properties.(*fakeProperties)
	props.items[rentalID] = PropertyView{ID: rentalID, Status: propdomain.StatusDisponivel, Category: propdomain.CategoryLocacao}

	resp, err := f.svc.Create(context.Background(), f.tenantID, transport.CreateNegotiationRequest{
		LeadID: f.leadID, PropertyID: rentalID, BrokerID: f.brokerID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	advanceToContrato(t, f, resp.ID)

	if _, err := f.svc.ChangeStatus(context.Background(), f.tenantID, resp.ID, transport.ChangeStatusRequest{
		Status: "FECHADO", ClosingValue: decPtr("2500"),
	}); err != nil {
		t.Fatalf("to FECHADO: %v", err)
	}

	last := f.store.propertySets[len(f.store.propertySets)-1]
	if last.NewStatus != string(propdomain.StatusAlugado) {
		t.Fatalf("property status = %s, want ALUGADO", last.NewStatus)
	}
}

func TestConcurrentCloseHasExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, decPtr("300000"))
	advanceToContrato(t, f, resp.ID)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ChangeStatus(context.Background(), f.tenantID, resp.ID, transport.ChangeStatusRequest{Status: "FECHADO"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case apperr.Is(err, apperr.KindConflict), apperr.Is(err, apperr.KindNotFound):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d; want exactly one of each", wins, conflicts)
	}
	if got := len(f.store.commissions[resp.ID]); got != 1 {
		t.Fatalf("commission records = %d, want exactly 1", got)
	}
	if got := len(f.store.propertySets); got != 1 {
		t.Fatalf("property updates = %d, want exactly 1", got)
	}
}

func TestDeleteOnlyOutsideActivePipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.create(t, nil)
	if err := f.svc.Delete(ctx, f.tenantID, resp.ID); err != nil {
		t.Fatalf("delete in CONTATO: %v", err)
	}

	resp = f.create(t, nil)
	advanceToContrato(t, f, resp.ID)
	err := f.svc.Delete(ctx, f.tenantID, resp.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	f.mustStatus(t, resp.ID, domain.StatusContrato)

	if err := f.svc.Delete(ctx, f.tenantID, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestAddCommissionValidatesInput(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, nil)
	ctx := context.Background()

	_, err := f.svc.AddCommission(ctx, f.tenantID, resp.ID, transport.AddCommissionRequest{
		BrokerID: f.brokerID, Percent: decimal.NewFromInt(3), Value: decimal.NewFromInt(900), Tipo: "BONUS",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}

	_, err = f.svc.AddCommission(ctx, f.tenantID, resp.ID, transport.AddCommissionRequest{
		BrokerID: uuid.New(), Percent: decimal.NewFromInt(3), Value: decimal.NewFromInt(900), Tipo: "SPLIT",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}

	if _, err := f.svc.AddCommission(ctx, f.tenantID, resp.ID, transport.AddCommissionRequest{
		BrokerID: f.brokerID, Percent: decimal.NewFromInt(3), Value: decimal.NewFromInt(900), Tipo: "SPLIT",
	}); err != nil {
		t.Fatalf("add commission: %v", err)
	}
	if got := len(f.store.commissions[resp.ID]); got != 1 {
		t.Fatalf("commission records = %d, want 1", got)
	}
}

func TestTenantIsolationFailsClosed(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, nil)

	otherTenant := uuid.New()
	_, err := f.svc.GetByID(context.Background(), otherTenant, resp.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}

	err = f.svc.Delete(context.Background(), otherTenant, resp.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
	f.mustStatus(t, resp.ID, domain.StatusContato)
}

func TestStatsDerivesConversionAndTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two closed deals out of four total.
	for i := 0; i < 4; i++ {
		leadID := uuid.New()
		propID := uuid.New()
		f.svc.leads.(*fakeLeads).ids[leadID] = true
		f.svc.properties.(*fakeProperties).items[propID] = PropertyView{
			ID: propID, Status: propdomain.StatusDisponivel, Category: propdomain.CategoryVenda,
		}
		resp, err := f.svc.Create(ctx, f.tenantID, transport.CreateNegotiationRequest{
			LeadID: leadID, PropertyID: propID, BrokerID: f.brokerID,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if i < 2 {
			advanceToContrato(t, f, resp.ID)
			if _, err := f.svc.ChangeStatus(ctx, f.tenantID, resp.ID, transport.ChangeStatusRequest{
				Status: "FECHADO", ClosingValue: decPtr("100000"),
			}); err != nil {
				t.Fatalf("close: %v", err)
			}
		}
	}

	stats, err := f.svc.Stats(ctx, f.tenantID, transport.StatsRequest{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Fechadas != 2 {
		t.Fatalf("total = %d, fechadas = %d", stats.Total, stats.Fechadas)
	}
	if !stats.TaxaConversao.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("taxa = %s, want 50", stats.TaxaConversao)
	}
	if !stats.ValorTotal.Equal(decimal.RequireFromString("200000")) {
		t.Fatalf("valor total = %s, want 200000", stats.ValorTotal)
	}
	if !stats.TicketMedio.Equal(decimal.RequireFromString("100000")) {
		t.Fatalf("ticket medio = %s, want 100000", stats.TicketMedio)
	}
	if got := stats.PorStatus[string(domain.StatusContato)]; got != 2 {
		t.Fatalf("porStatus[CONTATO] = %d, want 2", got)
	}
	if got := stats.PorStatus[string(domain.StatusCancelado)]; got != 0 {
		t.Fatalf("porStatus[CANCELADO] = %d, want 0", got)
	}
}

func TestStatsEmptyPipelineHasZeroRates(t *testing.T) {
	f := newFixture(t)

	stats, err := f.svc.Stats(context.Background(), f.tenantID, transport.StatsRequest{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.TaxaConversao.IsZero() || !stats.TicketMedio.IsZero() {
		t.Fatalf("taxa = %s, ticket = %s; want zero", stats.TaxaConversao, stats.TicketMedio)
	}
}

// failingLeads simulates an unreachable collaborator.
type failingLeads struct{}

func (failingLeads) Exists(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, errors.New("connection refused")
}

func TestCollaboratorFailureSurfacesAsDependencyError(t *testing.T) {
	f := newFixture(t)
	f.svc.leads = failingLeads{}

	_, err := f.svc.Create(context.Background(), f.tenantID, transport.CreateNegotiationRequest{
		LeadID: f.leadID, PropertyID: f.propID, BrokerID: f.brokerID,
	})
	if !apperr.Is(err, apperr.KindDependency) {
		t.Fatalf("err = %v, want dependency", err)
	}
}
