// Package handler exposes the negotiation pipeline over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imobcrm_backend/internal/negotiations/service"
	"imobcrm_backend/internal/negotiations/transport"
	"imobcrm_backend/platform/httpkit"
	"imobcrm_backend/platform/validator"
)

// Handler handles HTTP requests for negotiations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid negotiation id"
)

// New creates a new negotiations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// maxDocumentSize caps document uploads at 25 MiB.
const maxDocumentSize = 25 << 20

// Create opens a negotiation.
// POST /api/v1/negotiations
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateNegotiationRequest
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

// List returns a filtered page of negotiations.
// GET /api/v1/negotiations
func (h *Handler) List(c *gin.Context) {
	var req transport.ListNegotiationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), tc.TenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns one negotiation.
// GET /api/v1/negotiations/:id
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

// ChangeStatus moves a negotiation along the pipeline.
// PATCH /api/v1/negotiations/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.ChangeStatusRequest
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

	result, err := h.svc.ChangeStatus(c.Request.Context(), tc.TenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddCommission appends one record to the commission ledger.
// POST /api/v1/negotiations/:id/commissions
func (h *Handler) AddCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.AddCommissionRequest
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

	result, err := h.svc.AddCommission(c.Request.Context(), tc.TenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListCommissions returns a negotiation's commission ledger.
// GET /api/v1/negotiations/:id/commissions
func (h *Handler) ListCommissions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Commissions(c.Request.Context(), tc.TenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Timeline returns a negotiation's event log.
// GET /api/v1/negotiations/:id/timeline
func (h *Handler) Timeline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Timeline(c.Request.Context(), tc.TenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddDocument uploads a document for a negotiation.
// POST /api/v1/negotiations/:id/documents
func (h *Handler) AddDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	defer file.Close()

	if header.Size > maxDocumentSize {
		httpkit.Error(c, http.StatusBadRequest, "file exceeds the 25 MiB limit", nil)
		return
	}

	req := transport.AddDocumentRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddDocument(c.Request.Context(), tc.TenantID, id, req, header.Size, file)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListDocuments returns a negotiation's documents.
// GET /api/v1/negotiations/:id/documents
func (h *Handler) ListDocuments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Documents(c.Request.Context(), tc.TenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a negotiation that is not mid-pipeline.
// DELETE /api/v1/negotiations/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), tc.TenantID, id)) {
		return
	}
	httpkit.NoContent(c)
}

// Stats returns the pipeline aggregate report.
// GET /api/v1/negotiations/stats
func (h *Handler) Stats(c *gin.Context) {
	var req transport.StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	tc, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Stats(c.Request.Context(), tc.TenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
