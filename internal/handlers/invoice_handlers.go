package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"
	"gstvault/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices and their versions
type InvoiceHandlers struct {
	invoiceRepo   repositories.InvoiceRepository
	versioningSvc services.VersioningService
	documentSvc   services.DocumentService
	auditSvc      services.AuditService
}

func NewInvoiceHandlers(invoiceRepo repositories.InvoiceRepository, versioningSvc services.VersioningService, documentSvc services.DocumentService, auditSvc services.AuditService) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceRepo:   invoiceRepo,
		versioningSvc: versioningSvc,
		documentSvc:   documentSvc,
		auditSvc:      auditSvc,
	}
}

// ListInvoices handles GET /invoices. The business id always comes from the
// verified token context, never from request input.
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
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

	invoices, err := h.invoiceRepo.List(ctx, businessID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to fetch invoices")
	}
	if invoices == nil {
		invoices = []*models.Invoice{}
	}
	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice handles GET /invoices/:id and returns the invoice with its
// latest version preview. Absence and foreign ownership share one 404 shape.
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoice, err := h.invoiceRepo.GetByID(ctx, businessID, invoiceID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to fetch invoice")
	}

	response := map[string]interface{}{"invoice": invoice}
	if version, err := h.versioningSvc.Latest(ctx, businessID, invoiceID); err == nil {
		response["latest_version"] = version
	}
	return c.JSON(http.StatusOK, response)
}

// ListVersions handles GET /invoices/:id/versions
func (h *InvoiceHandlers) ListVersions(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	versions, err := h.versioningSvc.ListVersions(ctx, businessID, invoiceID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to fetch versions")
	}
	if versions == nil {
		versions = []*models.InvoiceVersion{}
	}
	return c.JSON(http.StatusOK, versions)
}

// GetInvoiceAudit handles GET /invoices/:id/audit and returns the recorded
// finalize/correction/freeze trail for the invoice.
func (h *InvoiceHandlers) GetInvoiceAudit(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	// Ownership check first; the audit table itself is not tenant-scoped.
	if _, err := h.invoiceRepo.GetByID(ctx, businessID, invoiceID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, "Failed to fetch invoice")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	limit, _, err = common.ValidatePaginationParams(limit, 0)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	entries, err := h.auditSvc.History(ctx, "invoice", invoiceID, limit)
	if err != nil {
		return common.SendServerError(c, "Failed to fetch audit history")
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	return c.JSON(http.StatusOK, entries)
}

// CorrectInvoice handles POST /invoices/:id/correct. The corrected snapshot
// becomes the next version in the chain.
func (h *InvoiceHandlers) CorrectInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		DataSnapshot models.JSONB `json:"data_snapshot"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if len(req.DataSnapshot) == 0 {
		return common.SendValidationError(c, "data_snapshot", "data_snapshot is required")
	}

	version, err := h.versioningSvc.CreateCorrection(ctx, businessID, invoiceID, req.DataSnapshot, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return common.SendNotFoundError(c, "invoice")
		case errors.Is(err, common.ErrLocked):
			return common.SendLockedError(c, "Invoice is frozen by an export")
		case errors.Is(err, common.ErrHighContention):
			return common.SendConflictError(c, "Could not create version due to high concurrency. Please try again.")
		case errors.Is(err, common.ErrConflict):
			return common.SendConflictError(c, "Invoice already finalized")
		}
		return common.SendServerError(c, "Failed to create correction")
	}
	return c.JSON(http.StatusOK, version)
}

// FinalizeInvoice handles POST /invoices/:id/finalize. Re-finalizing is a
// 409, not a silent success.
func (h *InvoiceHandlers) FinalizeInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.versioningSvc.Finalize(ctx, businessID, invoiceID, userID); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return common.SendNotFoundError(c, "invoice")
		case errors.Is(err, common.ErrConflict):
			return common.SendConflictError(c, "Invoice already finalized")
		}
		return common.SendServerError(c, "Failed to finalize invoice")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Invoice finalized successfully"})
}

// RenderInvoicePDF handles POST /invoices/:id/render-pdf. Renders the latest
// version and attaches the document URL one time.
func (h *InvoiceHandlers) RenderInvoicePDF(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	url, err := h.documentSvc.RenderAndAttach(ctx, businessID, invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return common.SendNotFoundError(c, "invoice")
		case errors.Is(err, common.ErrConflict):
			return common.SendConflictError(c, "Rendered document already attached")
		}
		return common.SendServerError(c, "Failed to render invoice document")
	}
	return c.JSON(http.StatusOK, map[string]string{"rendered_document_url": url})
}
