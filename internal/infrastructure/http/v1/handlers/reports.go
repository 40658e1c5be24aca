package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/domain/reports"
)

// ReportHandler serves the financial aggregation surface.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// FinancialSummary handles GET /reports/financial-summary?from=&to=.
func (h *ReportHandler) FinancialSummary(c *gin.Context) {
	from, ok := h.ParseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.ParseDateQuery(c, "to")
	if !ok {
		return
	}
	if from == nil || to == nil {
		h.Error(c, apperror.NewValidation("from and to are required"))
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), *from, *to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}
