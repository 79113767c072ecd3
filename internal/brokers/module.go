// Package brokers provides the brokers bounded context module.
package brokers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"imobcrm_backend/internal/brokers/handler"
	"imobcrm_backend/internal/brokers/repository"
	"imobcrm_backend/internal/brokers/service"
	apphttp "imobcrm_backend/internal/http"
	"imobcrm_backend/platform/logger"
	"imobcrm_backend/platform/validator"
)

// Module is the brokers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the brokers module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "brokers"
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts broker routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/brokers")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id/commission", m.handler.UpdateCommission)
	group.PATCH("/:id/active", m.handler.SetActive)
}
