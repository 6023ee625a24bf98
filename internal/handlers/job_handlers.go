package handlers

import (
	"errors"
	"net/http"

	"gstvault/internal/common"
	"gstvault/internal/repositories"

	"github.com/labstack/echo/v4"
)

// JobHandlers exposes OCR job status for polling clients
type JobHandlers struct {
	jobRepo repositories.OcrJobRepository
}

func NewJobHandlers(jobRepo repositories.OcrJobRepository) *JobHandlers {
	return &JobHandlers{jobRepo: jobRepo}
}

// GetJob handles GET /jobs/:id
func (h *JobHandlers) GetJob(c echo.Context) error {
	ctx := c.Request().Context()

	businessID, ok := common.GetBusinessIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	jobID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	job, err := h.jobRepo.GetForBusiness(ctx, businessID, jobID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.SendNotFoundError(c, "job")
		}
		return common.SendServerError(c, "Failed to fetch job")
	}
	return c.JSON(http.StatusOK, job)
}
