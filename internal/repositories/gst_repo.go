package repositories

import (
	"context"
	"errors"

	"gstvault/internal/common"
	"gstvault/internal/models"

	"github.com/jackc/pgx/v5"
)

type GSTRepository interface {
	InsertValidationLog(ctx context.Context, logRow *models.GSTValidationLog) error
	FindReferenceByCompanyName(ctx context.Context, companyName string) (*models.GSTReference, error)
}

type gstRepo struct {
	db Database
}

func NewGSTRepo(db Database) GSTRepository {
	return &gstRepo{db: db}
}

func (r *gstRepo) InsertValidationLog(ctx context.Context, logRow *models.GSTValidationLog) error {
	query := `
		INSERT INTO gst_validation_logs (id, invoice_version_id, gstin, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, logRow.ID, logRow.InvoiceVersionID, logRow.GSTIN, logRow.Status, logRow.Reason)
	return err
}

func (r *gstRepo) FindReferenceByCompanyName(ctx context.Context, companyName string) (*models.GSTReference, error) {
	ref := &models.GSTReference{}
	query := `
		SELECT id, company_name, gstin, address
		FROM gst_reference
		WHERE LOWER(company_name) = LOWER($1)
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, companyName).Scan(&ref.ID, &ref.CompanyName, &ref.GSTIN, &ref.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}
