package handlers

import (
	"net/http"

	"gstvault/internal/common"
	"gstvault/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers serves filing summaries over the finalized ledger
type ReportHandlers struct {
	reportSvc services.ReportService
}

func NewReportHandlers(reportSvc services.ReportService) *ReportHandlers {
	return &ReportHandlers{reportSvc: reportSvc}
}

// GSTR1Summary handles GET /reports/gstr1-summary
func (h *ReportHandlers) GSTR1Summary(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	summary, err := h.reportSvc.GSTR1Summary(ctx, businessID)
	if err != nil {
		return common.SendServerError(c, "Failed to build summary")
	}
	return c.JSON(http.StatusOK, summary)
}
