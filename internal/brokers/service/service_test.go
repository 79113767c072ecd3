package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"imobcrm_backend/internal/brokers/repository"
	"imobcrm_backend/internal/brokers/transport"
	"imobcrm_backend/platform/apperr"
	"imobcrm_backend/platform/logger"
)

type fakeStore struct {
	brokers map[uuid.UUID]repository.Broker
}

func newFakeStore() *fakeStore {
	return &fakeStore{brokers: make(map[uuid.UUID]repository.Broker)}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateParams) (repository.Broker, error) {
	b := repository.Broker{
		ID:                uuid.New(),
		TenantID:          params.TenantID,
		Name:              params.Name,
		Email:             params.Email,
		Phone:             params.Phone,
		CommissionPercent: params.CommissionPercent,
		Active:            true,
	}
	f.brokers[b.ID] = b
	return b, nil
}

func (f *fakeStore) GetByID(_ context.Context, tenantID, id uuid.UUID) (repository.Broker, error) {
	b, ok := f.brokers[id]
	if !ok || b.TenantID != tenantID {
		return repository.Broker{}, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) List(_ context.Context, tenantID uuid.UUID, onlyActive bool) ([]repository.Broker, error) {
	var out []repository.Broker
	for _, b := range f.brokers {
		if b.TenantID != tenantID {
			continue
		}
		if onlyActive && !b.Active {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) UpdateCommissionPercent(_ context.Context, tenantID, id uuid.UUID, percent decimal.Decimal) (repository.Broker, error) {
	b, ok := f.brokers[id]
	if !ok || b.TenantID != tenantID {
		return repository.Broker{}, repository.ErrNotFound
	}
	b.CommissionPercent = percent
	f.brokers[id] = b
	return b, nil
}

func (f *fakeStore) SetActive(_ context.Context, tenantID, id uuid.UUID, active bool) (repository.Broker, error) {
	b, ok := f.brokers[id]
	if !ok || b.TenantID != tenantID {
		return repository.Broker{}, repository.ErrNotFound
	}
	b.Active = active
	f.brokers[id] = b
	return b, nil
}

func TestCreateRejectsOutOfRangeCommission(t *testing.T) {
	svc := New(newFakeStore(), logger.New("development"))
	tenantID := uuid.New()

	for _, percent := range []string{"-1", "100.01"} {
		_, err := svc.Create(context.Background(), tenantID, transport.CreateBrokerRequest{
			Name:              "Ana",
			Email:             "ana@example.com",
			Phone:             "+5511999999999",
			CommissionPercent: decimal.RequireFromString(percent),
		})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("percent %s: expected validation error, got %v", percent, err)
		}
	}
}

func TestUpdateCommissionAffectsFutureRatesOnly(t *testing.T) {
	store := newFakeStore()
	svc := New(store, logger.New("development"))
	tenantID := uuid.New()

	created, err := svc.Create(context.Background(), tenantID, transport.CreateBrokerRequest{
		Name:              "Ana",
		Email:             "ana@example.com",
		Phone:             "+5511999999999",
		CommissionPercent: decimal.RequireFromString("5"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateCommission(context.Background(), tenantID, created.ID, transport.UpdateCommissionRequest{
		CommissionPercent: decimal.RequireFromString("7.5"),
	})
	if err != nil {
		t.Fatalf("update commission: %v", err)
	}
	if !updated.CommissionPercent.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("unexpected commission percent %s", updated.CommissionPercent)
	}
}

func TestBrokerLookupsAreTenantScoped(t *testing.T) {
	store := newFakeStore()
	svc := New(store, logger.New("development"))

	created, err := svc.Create(context.Background(), uuid.New(), transport.CreateBrokerRequest{
		Name:              "Ana",
		Email:             "ana@example.com",
		Phone:             "+5511999999999",
		CommissionPercent: decimal.RequireFromString("5"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.GetByID(context.Background(), uuid.New(), created.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected cross-tenant lookup to fail closed, got %v", err)
	}
}
