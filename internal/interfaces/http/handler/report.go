package handler

import (
	"github.com/gin-gonic/gin"

	reportapp "github.com/storefront/backend/internal/application/report"
)

// ReportHandler exposes fulfillment statistics
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.Service) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Fulfillment returns order counts per status, realized revenue and the
// current low-stock count
func (h *ReportHandler) Fulfillment(c *gin.Context) {
	stats, err := h.reportService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/fulfillment", h.Fulfillment)
	}
}
