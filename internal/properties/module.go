// Package properties provides the property catalog bounded context module.
package properties

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "imobcrm_backend/internal/http"
	"imobcrm_backend/internal/properties/handler"
	"imobcrm_backend/internal/properties/repository"
	"imobcrm_backend/internal/properties/service"
	"imobcrm_backend/platform/logger"
	"imobcrm_backend/platform/validator"
)

// Module is the properties bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the properties module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "properties"
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts property routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/properties")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id/status", m.handler.UpdateStatus)
}
