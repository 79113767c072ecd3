package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/leads/repository"
	"imobcrm_backend/internal/leads/scoring"
	"imobcrm_backend/internal/leads/transport"
	"imobcrm_backend/platform/apperr"
	platformevents "imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
)

type fakeLeadStore struct {
	mu       sync.Mutex
	leads    map[uuid.UUID]repository.Lead
	timeline map[uuid.UUID][]repository.LeadEventKind
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		leads:    make(map[uuid.UUID]repository.Lead),
		timeline: make(map[uuid.UUID][]repository.LeadEventKind),
	}
}

func (f *fakeLeadStore) Create(_ context.Context, params repository.CreateParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, l := range f.leads {
		if l.TenantID == params.TenantID && l.Phone == params.Phone {
			return repository.Lead{}, repository.ErrDuplicatePhone
		}
	}

	lead := repository.Lead{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		Name:          params.Name,
		Phone:         params.Phone,
		Email:         params.Email,
		CPF:           params.CPF,
		SourceChannel: params.SourceChannel,
		Interest:      params.Interest,
		BrokerID:      params.BrokerID,
		Score:         params.Score,
		Temperature:   params.Temperature,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.leads[lead.ID] = lead
	f.timeline[lead.ID] = append(f.timeline[lead.ID], repository.LeadEventCriacao)
	return lead, nil
}

func (f *fakeLeadStore) GetByID(_ context.Context, tenantID, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadStore) List(_ context.Context, tenantID uuid.UUID, _ repository.ListFilters) ([]repository.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []repository.Lead
	for _, l := range f.leads {
		if l.TenantID == tenantID {
			items = append(items, l)
		}
	}
	return items, len(items), nil
}

func (f *fakeLeadStore) Update(_ context.Context, tenantID, id uuid.UUID, params repository.UpdateParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.Name != nil {
		lead.Name = *params.Name
	}
	if params.Email != nil {
		lead.Email = params.Email
	}
	if params.CPF != nil {
		lead.CPF = params.CPF
	}
	if params.Interest != nil {
		lead.Interest = *params.Interest
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeLeadStore) AssignBroker(_ context.Context, tenantID, id, brokerID uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.BrokerID = &brokerID
	f.leads[id] = lead
	f.timeline[id] = append(f.timeline[id], repository.LeadEventAtribuicaoCorretor)
	return lead, nil
}

func (f *fakeLeadStore) UpdateScore(_ context.Context, tenantID, id uuid.UUID, score int, temperature scoring.Temperature, _ int) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Score = score
	lead.Temperature = temperature
	f.leads[id] = lead
	f.timeline[id] = append(f.timeline[id], repository.LeadEventScoreRecalculado)
	return lead, nil
}

func (f *fakeLeadStore) ListTimeline(_ context.Context, tenantID, leadID uuid.UUID) ([]repository.LeadEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]repository.LeadEvent, 0, len(f.timeline[leadID]))
	for i, kind := range f.timeline[leadID] {
		out = append(out, repository.LeadEvent{
			ID: uuid.New(), LeadID: leadID, TenantID: tenantID, Seq: int64(i + 1), Kind: kind,
		})
	}
	return out, nil
}

func (f *fakeLeadStore) Stats(_ context.Context, tenantID uuid.UUID) (repository.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := repository.Stats{
		CountByTemp:    make(map[scoring.Temperature]int),
		CountByChannel: make(map[scoring.SourceChannel]int),
	}
	sum := 0
	for _, l := range f.leads {
		if l.TenantID != tenantID {
			continue
		}
		stats.Total++
		stats.CountByTemp[l.Temperature]++
		stats.CountByChannel[l.SourceChannel]++
		sum += l.Score
	}
	if stats.Total > 0 {
		stats.AverageScore = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(stats.Total))).Round(2)
	}
	return stats, nil
}

type fakeBrokerChecker struct {
	ids map[uuid.UUID]bool
}

func (f *fakeBrokerChecker) Exists(_ context.Context, _ uuid.UUID, id uuid.UUID) (bool, error) {
	return f.ids[id], nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, platformevents.Event)           {}
func (nopBus) PublishSync(context.Context, platformevents.Event) error { return nil }
func (nopBus) Subscribe(string, platformevents.Handler)                 {}

func newLeadFixture() (*Service, *fakeLeadStore, uuid.UUID, uuid.UUID) {
	store := newFakeLeadStore()
	brokerID := uuid.New()
	brokers := &fakeBrokerChecker{ids: map[uuid.UUID]bool{brokerID: true}}
	svc := New(store, brokers, nopBus{}, logger.New("test"))
	return svc, store, uuid.New(), brokerID
}

func TestCreateScoresFromKnownAttributes(t *testing.T) {
	svc, _, tenantID, _ := newLeadFixture()

	// email +10, cpf +15, types +7, price range +7, locations +6,
	// WHATSAPP +15; no broker. Total 60, WARM.
	min := decimal.NewFromInt(300000)
	resp, err := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{
		Name:          "Ana Souza",
		Phone:         "+5511998765432",
		Email:         "ana@example.com",
		CPF:           "12345678901",
		SourceChannel: "WHATSAPP",
		Interest: &transport.InterestPayload{
			PropertyTypes: []string{"APARTAMENTO"},
			PriceMin:      &min,
			Locations:     []string{"Pinheiros"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Score != 60 {
		t.Fatalf("score = %d, want 60", resp.Score)
	}
	if resp.Temperature != string(scoring.TemperatureWarm) {
		t.Fatalf("temperature = %s, want WARM", resp.Temperature)
	}
}

func TestCreateWithAssignedBrokerAddsWeight(t *testing.T) {
	svc, _, tenantID, brokerID := newLeadFixture()

	resp, err := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{
		Name:          "Bruno Lima",
		Phone:         "+5511912345678",
		SourceChannel: "REFERRAL",
		BrokerID:      &brokerID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// REFERRAL 25 + broker 10
	if resp.Score != 35 {
		t.Fatalf("score = %d, want 35", resp.Score)
	}
}

func TestCreateRejectsUnknownBroker(t *testing.T) {
	svc, _, tenantID, _ := newLeadFixture()

	unknown := uuid.New()
	_, err := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{
		Name: "Carla", Phone: "+5511911112222", BrokerID: &unknown,
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	svc, _, tenantID, _ := newLeadFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, tenantID, transport.CreateLeadRequest{Name: "A", Phone: "+5511999990000"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, tenantID, transport.CreateLeadRequest{Name: "B", Phone: "+5511999990000"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestUpdateNeverRescores(t *testing.T) {
	svc, store, tenantID, _ := newLeadFixture()
	ctx := context.Background()

	resp, err := svc.Create(ctx, tenantID, transport.CreateLeadRequest{
		Name: "Diego", Phone: "+5511955554444",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Score != 0 {
		t.Fatalf("score = %d, want 0", resp.Score)
	}

	// Adding an email and CPF later must not touch the stored score.
	email := "diego@example.com"
	cpf := "98765432100"
	updated, err := svc.Update(ctx, tenantID, resp.ID, transport.UpdateLeadRequest{Email: &email, CPF: &cpf})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Score != 0 {
		t.Fatalf("score after update = %d, want 0", updated.Score)
	}
	for _, kind := range store.timeline[resp.ID] {
		if kind == repository.LeadEventScoreRecalculado {
			t.Fatal("update must not append a score recalculation event")
		}
	}
}

func TestRecalculateScoreIsExplicit(t *testing.T) {
	svc, store, tenantID, _ := newLeadFixture()
	ctx := context.Background()

	resp, err := svc.Create(ctx, tenantID, transport.CreateLeadRequest{Name: "Elisa", Phone: "+5511933332222"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	email := "elisa@example.com"
	cpf := "11122233344"
	if _, err := svc.Update(ctx, tenantID, resp.ID, transport.UpdateLeadRequest{Email: &email, CPF: &cpf}); err != nil {
		t.Fatalf("update: %v", err)
	}

	recalced, err := svc.RecalculateScore(ctx, tenantID, resp.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	// email +10, cpf +15
	if recalced.Score != 25 {
		t.Fatalf("score = %d, want 25", recalced.Score)
	}

	found := false
	for _, kind := range store.timeline[resp.ID] {
		if kind == repository.LeadEventScoreRecalculado {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a score recalculation event on the lead log")
	}
}

func TestRecalculateIsNoOpWhenScoreUnchanged(t *testing.T) {
	svc, store, tenantID, _ := newLeadFixture()
	ctx := context.Background()

	resp, err := svc.Create(ctx, tenantID, transport.CreateLeadRequest{Name: "Fabio", Phone: "+5511921212121"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.RecalculateScore(ctx, tenantID, resp.ID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	for _, kind := range store.timeline[resp.ID] {
		if kind == repository.LeadEventScoreRecalculado {
			t.Fatal("unchanged score must not append an event")
		}
	}
}

func TestAssignBrokerRecordsEvent(t *testing.T) {
	svc, store, tenantID, brokerID := newLeadFixture()
	ctx := context.Background()

	resp, err := svc.Create(ctx, tenantID, transport.CreateLeadRequest{Name: "Gina", Phone: "+5511944443333"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assigned, err := svc.AssignBroker(ctx, tenantID, resp.ID, transport.AssignBrokerRequest{BrokerID: brokerID})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.BrokerID == nil || *assigned.BrokerID != brokerID {
		t.Fatalf("broker = %v, want %s", assigned.BrokerID, brokerID)
	}
	last := store.timeline[resp.ID][len(store.timeline[resp.ID])-1]
	if last != repository.LeadEventAtribuicaoCorretor {
		t.Fatalf("last event = %s, want assignment", last)
	}
}

func TestLeadTenantIsolationFailsClosed(t *testing.T) {
	svc, _, tenantID, _ := newLeadFixture()

	resp, err := svc.Create(context.Background(), tenantID, transport.CreateLeadRequest{Name: "Hugo", Phone: "+5511900001111"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.GetByID(context.Background(), uuid.New(), resp.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestLeadStatsAggregatesByTemperature(t *testing.T) {
	svc, _, tenantID, brokerID := newLeadFixture()
	ctx := context.Background()

	hot := transport.CreateLeadRequest{
		Name: "Quente", Phone: "+5511977770001", Email: "q@example.com", CPF: "11111111111",
		SourceChannel: "REFERRAL", BrokerID: &brokerID,
		Interest: &transport.InterestPayload{PropertyTypes: []string{"CASA"}, Locations: []string{"Moema"}},
	}
	cold := transport.CreateLeadRequest{Name: "Frio", Phone: "+5511977770002"}

	if _, err := svc.Create(ctx, tenantID, hot); err != nil {
		t.Fatalf("create hot: %v", err)
	}
	if _, err := svc.Create(ctx, tenantID, cold); err != nil {
		t.Fatalf("create cold: %v", err)
	}

	stats, err := svc.Stats(ctx, tenantID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("total = %d, want 2", stats.Total)
	}
	if stats.PorTemperatura[string(scoring.TemperatureHot)] != 1 {
		t.Fatalf("hot = %d, want 1", stats.PorTemperatura[string(scoring.TemperatureHot)])
	}
	if stats.PorTemperatura[string(scoring.TemperatureCold)] != 1 {
		t.Fatalf("cold = %d, want 1", stats.PorTemperatura[string(scoring.TemperatureCold)])
	}
	if stats.PorTemperatura[string(scoring.TemperatureWarm)] != 0 {
		t.Fatalf("warm = %d, want 0", stats.PorTemperatura[string(scoring.TemperatureWarm)])
	}
}
