package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockbalance/internal/domain/reports"
	"stockbalance/internal/infrastructure/http/v1/dto"
)

// StockBalanceService computes the stock balance report.
type StockBalanceService interface {
	GetStockBalance(ctx context.Context, filter reports.StockBalanceFilter) (*reports.StockBalanceReport, error)
}

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service StockBalanceService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service StockBalanceService) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetStockBalance handles GET /reports/stock-balance
func (h *ReportsHandler) GetStockBalance(c *gin.Context) {
	var req dto.StockBalanceRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.GetStockBalance(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockBalanceReport(report))
}

// RegisterRoutes registers report routes.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock-balance", h.GetStockBalance)
}
