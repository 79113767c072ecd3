// Package leads provides the leads bounded context module.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "imobcrm_backend/internal/http"
	"imobcrm_backend/internal/leads/handler"
	"imobcrm_backend/internal/leads/repository"
	"imobcrm_backend/internal/leads/service"
	"imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
	"imobcrm_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module. The broker checker is
// injected by the composition root so this context never imports brokers.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, brokers service.BrokerChecker, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, brokers, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/stats", m.handler.Stats)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id", m.handler.Update)
	group.PATCH("/:id/broker", m.handler.AssignBroker)
	group.POST("/:id/score/recalculate", m.handler.RecalculateScore)
	group.GET("/:id/timeline", m.handler.Timeline)
}
