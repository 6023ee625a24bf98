package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/services"

	"github.com/labstack/echo/v4"
)

// ExportHandlers handles export freeze and listing
type ExportHandlers struct {
	exportSvc services.ExportService
}

func NewExportHandlers(exportSvc services.ExportService) *ExportHandlers {
	return &ExportHandlers{exportSvc: exportSvc}
}

// FreezeExport handles POST /exports/freeze. Every finalized invoice's latest
// version joins the export and is locked against further writes.
func (h *ExportHandlers) FreezeExport(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		FinancialYearID string `json:"financial_year_id"`
		Month           int    `json:"month"`
		ExportType      string `json:"export_type"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	financialYearID, err := common.ValidateUUID(req.FinancialYearID, "financial_year_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	if req.Month < 1 || req.Month > 12 {
		return common.SendValidationError(c, "month", "month must be between 1 and 12")
	}
	if req.ExportType == "" {
		req.ExportType = "GSTR1"
	}

	result, err := h.exportSvc.Freeze(ctx, businessID, financialYearID, req.Month, req.ExportType, userID)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return common.SendClientError(c, "No finalized invoices to export")
		}
		return common.SendServerError(c, "Failed to freeze export")
	}
	return c.JSON(http.StatusOK, result)
}

// ListExports handles GET /exports
func (h *ExportHandlers) ListExports(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	exports, err := h.exportSvc.List(ctx, businessID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to fetch exports")
	}
	if exports == nil {
		exports = []*models.Export{}
	}
	return c.JSON(http.StatusOK, exports)
}
