package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/export"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReportService is the part of reports.Service used by the handlers.
type ReportService interface {
	StockInOut(ctx context.Context, filter reports.StockInOutFilter) (*reports.StockInOutReport, error)
	JournalSummary(ctx context.Context, filter reports.JournalFilter) (*reports.JournalSummary, error)
}

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service ReportService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service ReportService) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetStockInOut handles GET /reports/stock-inout
func (h *ReportsHandler) GetStockInOut(c *gin.Context) {
	report, ok := h.buildStockInOut(c)
	if !ok {
		return
	}
	h.OK(c, dto.FromStockInOutReport(report))
}

// ExportStockInOut handles GET /reports/stock-inout/export?format=xlsx|pdf
func (h *ReportsHandler) ExportStockInOut(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.Error(c, err)
		return
	}

	report, ok := h.buildStockInOut(c)
	if !ok {
		return
	}

	data, err := export.Render(format, report)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Attachment(c, format.FileName(), format.ContentType(), data)
}

// GetJournalSummary handles GET /reports/journal-summary
func (h *ReportsHandler) GetJournalSummary(c *gin.Context) {
	var req dto.JournalSummaryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.service.JournalSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournalSummary(summary))
}

func (h *ReportsHandler) buildStockInOut(c *gin.Context) (*reports.StockInOutReport, bool) {
	var req dto.StockInOutRequest
	if !h.BindQuery(c, &req) {
		return nil, false
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	report, err := h.service.StockInOut(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return report, true
}
