package repositories

import (
	"context"
	"errors"
	"fmt"

	"gstvault/internal/common"
	"gstvault/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvoiceRepository interface {
	CreateWithJob(ctx context.Context, invoice *models.Invoice, job *models.OcrJob) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateGSTCorrection(ctx context.Context, id uuid.UUID, gstin, address string) error
	Finalize(ctx context.Context, businessID, id uuid.UUID) error
}

type invoiceRepo struct {
	db Database
}

func NewInvoiceRepo(db Database) InvoiceRepository {
	return &invoiceRepo{db: db}
}

// CreateWithJob inserts the invoice row and its OCR job row in one
// transaction so a visible invoice always has a job driving it.
func (r *invoiceRepo) CreateWithJob(ctx context.Context, invoice *models.Invoice, job *models.OcrJob) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upload transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	invoiceQuery := `
		INSERT INTO invoices (id, business_id, status, gstin, address, file_path, file_type, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, invoiceQuery, invoice.ID, invoice.BusinessID, invoice.Status, invoice.GSTIN, invoice.Address, invoice.FilePath, invoice.FileType, invoice.CreatedBy); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	jobQuery := `
		INSERT INTO invoice_ocr_jobs (id, invoice_id, business_id, file_path, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, jobQuery, job.ID, job.InvoiceID, job.BusinessID, job.FilePath, job.Status); err != nil {
		return fmt.Errorf("insert ocr job: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `
		SELECT id, business_id, status, gstin, address, file_path, file_type, finalized_at, created_by, created_at, updated_at
		FROM invoices
		WHERE business_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, businessID, id).Scan(&invoice.ID, &invoice.BusinessID, &invoice.Status, &invoice.GSTIN, &invoice.Address, &invoice.FilePath, &invoice.FileType, &invoice.FinalizedAt, &invoice.CreatedBy, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT id, business_id, status, gstin, address, file_path, file_type, finalized_at, created_by, created_at, updated_at
		FROM invoices
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.BusinessID, &invoice.Status, &invoice.GSTIN, &invoice.Address, &invoice.FilePath, &invoice.FileType, &invoice.FinalizedAt, &invoice.CreatedBy, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *invoiceRepo) UpdateGSTCorrection(ctx context.Context, id uuid.UUID, gstin, address string) error {
	query := `
		UPDATE invoices
		SET gstin = $1, address = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, gstin, address, models.InvoiceStatusGSTCorrected, id)
	return err
}

// Finalize is a conditional single-row write: zero rows affected means the
// invoice is either missing or already finalized, and the caller decides
// which by re-reading.
func (r *invoiceRepo) Finalize(ctx context.Context, businessID, id uuid.UUID) error {
	query := `
		UPDATE invoices
		SET status = $1, finalized_at = NOW(), updated_at = NOW()
		WHERE business_id = $2 AND id = $3 AND status <> $1
	`
	tag, err := r.db.Exec(ctx, query, models.InvoiceStatusFinalized, businessID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrConflict
	}
	return nil
}
