package repositories

import (
	"context"
	"fmt"

	"gstvault/internal/models"

	"github.com/google/uuid"
)

type ExportRepository interface {
	LatestFinalVersionIDs(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error)
	CreateWithLinks(ctx context.Context, export *models.Export, versionIDs []uuid.UUID) error
	List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Export, error)
}

type exportRepo struct {
	db Database
}

func NewExportRepo(db Database) ExportRepository {
	return &exportRepo{db: db}
}

// LatestFinalVersionIDs snapshots the newest finalized version of every
// finalized invoice owned by the business.
func (r *exportRepo) LatestFinalVersionIDs(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT ON (v.invoice_id) v.id
		FROM invoice_versions v
		JOIN invoices i ON i.id = v.invoice_id
		WHERE i.business_id = $1 AND i.status = $2 AND v.is_final = true
		ORDER BY v.invoice_id, v.version_number DESC
	`
	rows, err := r.db.Query(ctx, query, businessID, models.InvoiceStatusFinalized)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateWithLinks inserts the export row and every link in one transaction.
// A partial link set must never be visible: any failure aborts the whole
// freeze and the export row is rolled back with it.
func (r *exportRepo) CreateWithLinks(ctx context.Context, export *models.Export, versionIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin freeze transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	exportQuery := `
		INSERT INTO exports (id, business_id, financial_year_id, month, export_type, locked, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6, NOW())
	`
	if _, err := tx.Exec(ctx, exportQuery, export.ID, export.BusinessID, export.FinancialYearID, export.Month, export.ExportType, export.CreatedBy); err != nil {
		return fmt.Errorf("insert export: %w", err)
	}

	linkQuery := `
		INSERT INTO export_invoice_links (export_id, invoice_version_id)
		VALUES ($1, $2)
	`
	for _, versionID := range versionIDs {
		if _, err := tx.Exec(ctx, linkQuery, export.ID, versionID); err != nil {
			return fmt.Errorf("insert export link: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *exportRepo) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Export, error) {
	query := `
		SELECT id, business_id, financial_year_id, month, export_type, locked, created_by, created_at
		FROM exports
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*models.Export
	for rows.Next() {
		export := &models.Export{}
		if err := rows.Scan(&export.ID, &export.BusinessID, &export.FinancialYearID, &export.Month, &export.ExportType, &export.Locked, &export.CreatedBy, &export.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, export)
	}
	return exports, rows.Err()
}
