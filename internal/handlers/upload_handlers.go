package handlers

import (
	"errors"
	"net/http"

	"gstvault/internal/common"
	"gstvault/internal/services"

	"github.com/labstack/echo/v4"
)

const maxFilesPerRequest = 5

// UploadHandlers handles invoice file uploads
type UploadHandlers struct {
	uploadSvc services.UploadService
}

func NewUploadHandlers(uploadSvc services.UploadService) *UploadHandlers {
	return &UploadHandlers{uploadSvc: uploadSvc}
}

// UploadInvoices handles POST /invoices/upload. Accepts up to 5 files under
// the "files" form field and returns the durable ids for each.
func (h *UploadHandlers) UploadInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return common.SendClientError(c, "Invalid multipart form")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return common.SendClientError(c, "No files uploaded")
	}
	if len(files) > maxFilesPerRequest {
		return common.SendValidationError(c, "files", "At most 5 files per request")
	}

	requestID := common.GetRequestIDFromContext(ctx)

	var created []*services.UploadResult
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			return common.SendServerError(c, "Failed to read uploaded file")
		}

		result, err := h.uploadSvc.UploadInvoice(ctx, businessID, userID, requestID, services.UploadInput{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Reader:      src,
		})
		src.Close()
		if err != nil {
			if errors.Is(err, common.ErrValidation) {
				return common.SendValidationError(c, "files", err.Error())
			}
			return common.SendServerError(c, "Upload failed")
		}
		created = append(created, result)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Invoices created and OCR jobs queued",
		"data":    created,
	})
}
