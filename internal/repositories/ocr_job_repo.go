package repositories

import (
	"context"
	"errors"
	"time"

	"gstvault/internal/common"
	"gstvault/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OcrJobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.OcrJob, error)
	GetForBusiness(ctx context.Context, businessID, id uuid.UUID) (*models.OcrJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	StuckQueued(ctx context.Context, olderThan time.Duration) ([]*models.OcrJob, error)
}

type ocrJobRepo struct {
	db Database
}

func NewOcrJobRepo(db Database) OcrJobRepository {
	return &ocrJobRepo{db: db}
}

const ocrJobColumns = `id, invoice_id, business_id, file_path, status, error_message, processed_at, completed_at, created_at, updated_at`

func (r *ocrJobRepo) scanJob(row pgx.Row) (*models.OcrJob, error) {
	job := &models.OcrJob{}
	err := row.Scan(&job.ID, &job.InvoiceID, &job.BusinessID, &job.FilePath, &job.Status, &job.ErrorMessage, &job.ProcessedAt, &job.CompletedAt, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *ocrJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.OcrJob, error) {
	query := `SELECT ` + ocrJobColumns + ` FROM invoice_ocr_jobs WHERE id = $1`
	return r.scanJob(r.db.QueryRow(ctx, query, id))
}

func (r *ocrJobRepo) GetForBusiness(ctx context.Context, businessID, id uuid.UUID) (*models.OcrJob, error) {
	query := `SELECT ` + ocrJobColumns + ` FROM invoice_ocr_jobs WHERE business_id = $1 AND id = $2`
	return r.scanJob(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *ocrJobRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE invoice_ocr_jobs
		SET status = $1, processed_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, models.JobStatusProcessing, id)
	return err
}

func (r *ocrJobRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE invoice_ocr_jobs
		SET status = $1, error_message = NULL, completed_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, models.JobStatusCompleted, id)
	return err
}

// MarkFailed records the error so an exhausted job stays visible for
// operator triage instead of disappearing with the queue message.
func (r *ocrJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE invoice_ocr_jobs
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, models.JobStatusFailed, errorMessage, id)
	return err
}

// StuckQueued finds jobs the database believes are queued but which no
// worker has touched past the threshold. These are the "zombie jobs" left
// behind when an enqueue failed after the DB commit; the reconciliation
// sweep re-enqueues them.
func (r *ocrJobRepo) StuckQueued(ctx context.Context, olderThan time.Duration) ([]*models.OcrJob, error) {
	query := `
		SELECT ` + ocrJobColumns + `
		FROM invoice_ocr_jobs
		WHERE status = $1 AND created_at < NOW() - $2::interval
		ORDER BY created_at ASC
		LIMIT 100
	`
	rows, err := r.db.Query(ctx, query, models.JobStatusQueued, olderThan.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.OcrJob
	for rows.Next() {
		job := &models.OcrJob{}
		if err := rows.Scan(&job.ID, &job.InvoiceID, &job.BusinessID, &job.FilePath, &job.Status, &job.ErrorMessage, &job.ProcessedAt, &job.CompletedAt, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
