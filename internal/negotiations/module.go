// Package negotiations provides the negotiations bounded context module.
package negotiations

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "imobcrm_backend/internal/http"
	"imobcrm_backend/internal/negotiations/handler"
	"imobcrm_backend/internal/negotiations/repository"
	"imobcrm_backend/internal/negotiations/service"
	"imobcrm_backend/platform/events"
	"imobcrm_backend/platform/logger"
	"imobcrm_backend/platform/validator"
)

// Module is the negotiations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the negotiations module. The collaborator
// readers are injected by the composition root so this context never imports
// its sibling contexts directly.
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	properties service.PropertyStore,
	brokers service.BrokerStore,
	leads service.LeadStore,
	bus events.Bus,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, properties, brokers, leads, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "negotiations"
}

// SetStorage enables document upload and download once object storage is
// available. Without it the document endpoints reject requests.
func (m *Module) SetStorage(storage service.ObjectStorage) {
	m.service.SetStorage(storage)
}

// RegisterRoutes mounts negotiation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/negotiations")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/stats", m.handler.Stats)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id/status", m.handler.ChangeStatus)
	group.DELETE("/:id", m.handler.Delete)
	group.POST("/:id/commissions", m.handler.AddCommission)
	group.GET("/:id/commissions", m.handler.ListCommissions)
	group.GET("/:id/timeline", m.handler.Timeline)
	group.POST("/:id/documents", m.handler.AddDocument)
	group.GET("/:id/documents", m.handler.ListDocuments)
}
