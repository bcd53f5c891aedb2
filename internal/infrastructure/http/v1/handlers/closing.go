package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockbalance/internal/core/apperror"
	"stockbalance/internal/domain/reports"
	"stockbalance/internal/infrastructure/http/v1/dto"
)

// ClosingService creates closing snapshots.
type ClosingService interface {
	CreateSnapshot(ctx context.Context, req reports.ClosingRequest) (*reports.ClosingResult, error)
}

// ClosingHandler handles HTTP requests for closing stock balances.
type ClosingHandler struct {
	*BaseHandler
	service ClosingService
}

// NewClosingHandler creates a new closing handler.
func NewClosingHandler(base *BaseHandler, service ClosingService) *ClosingHandler {
	return &ClosingHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /closing-balances
func (h *ClosingHandler) Create(c *gin.Context) {
	var req dto.CreateClosingBalanceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	closingReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	result, err := h.service.CreateSnapshot(c.Request.Context(), closingReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromClosingResult(result))
}

// RegisterRoutes registers closing balance routes.
func (h *ClosingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
}
