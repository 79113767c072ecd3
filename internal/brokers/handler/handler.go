// Package handler exposes brokers over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imobcrm_backend/internal/brokers/service"
	"imobcrm_backend/internal/brokers/transport"
	"imobcrm_backend/platform/httpkit"
	"imobcrm_backend/platform/validator"
)

// Handler handles HTTP requests for brokers.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid broker id"
)

// New creates a new brokers handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create registers a broker.
// POST /api/v1/brokers
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateBrokerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), tc.TenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List returns the tenant's brokers.
// GET /api/v1/brokers
func (h *Handler) List(c *gin.Context) {
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	onlyActive := c.Query("active") == "true"
	result, err := h.svc.List(c.Request.Context(), tc.TenantID, onlyActive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns one broker.
// GET /api/v1/brokers/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), tc.TenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateCommission sets a broker's default commission rate.
// PATCH /api/v1/brokers/:id/commission
func (h *Handler) UpdateCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.UpdateCommission(c.Request.Context(), tc.TenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetActive toggles a broker's availability.
// PATCH /api/v1/brokers/:id/active
func (h *Handler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.SetActive(c.Request.Context(), tc.TenantID, id, *req.Active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
