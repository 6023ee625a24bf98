package repositories

import (
	"context"
	"errors"

	"gstvault/internal/common"
	"gstvault/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type VersionRepository interface {
	MaxVersionNumber(ctx context.Context, invoiceID uuid.UUID) (int, error)
	InsertGuarded(ctx context.Context, version *models.InvoiceVersion) error
	Latest(ctx context.Context, invoiceID uuid.UUID) (*models.InvoiceVersion, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*models.InvoiceVersion, error)
	MarkLatestFinal(ctx context.Context, invoiceID uuid.UUID) error
	AttachRenderedDocument(ctx context.Context, versionID uuid.UUID, url string) error
}

type versionRepo struct {
	db Database
}

func NewVersionRepo(db Database) VersionRepository {
	return &versionRepo{db: db}
}

// MaxVersionNumber returns the current highest version number for the
// invoice, or 0 when no version exists yet.
func (r *versionRepo) MaxVersionNumber(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	var maxVersion int
	query := `SELECT COALESCE(MAX(version_number), 0) FROM invoice_versions WHERE invoice_id = $1`
	if err := r.db.QueryRow(ctx, query, invoiceID).Scan(&maxVersion); err != nil {
		return 0, err
	}
	return maxVersion, nil
}

// InsertGuarded appends a version row. The NOT EXISTS guard is evaluated in
// the same statement as the insert: once any export links a version of this
// invoice, the insert affects zero rows and ErrLocked is returned. A unique
// violation on (invoice_id, version_number) means a concurrent writer won
// the race; callers retry with a fresh max.
func (r *versionRepo) InsertGuarded(ctx context.Context, version *models.InvoiceVersion) error {
	query := `
		INSERT INTO invoice_versions (id, invoice_id, version_number, data_snapshot, raw_ocr_json, confidence, is_final, created_by, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, NOW()
		WHERE NOT EXISTS (
			SELECT 1
			FROM export_invoice_links l
			JOIN invoice_versions v ON v.id = l.invoice_version_id
			WHERE v.invoice_id = $2
		)
	`
	tag, err := r.db.Exec(ctx, query, version.ID, version.InvoiceID, version.VersionNumber, version.DataSnapshot, version.RawOcrJSON, version.Confidence, version.IsFinal, version.CreatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrLocked
	}
	return nil
}

func (r *versionRepo) Latest(ctx context.Context, invoiceID uuid.UUID) (*models.InvoiceVersion, error) {
	version := &models.InvoiceVersion{}
	query := `
		SELECT id, invoice_id, version_number, data_snapshot, raw_ocr_json, confidence, is_final, rendered_document_url, created_by, created_at
		FROM invoice_versions
		WHERE invoice_id = $1
		ORDER BY version_number DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(&version.ID, &version.InvoiceID, &version.VersionNumber, &version.DataSnapshot, &version.RawOcrJSON, &version.Confidence, &version.IsFinal, &version.RenderedDocumentURL, &version.CreatedBy, &version.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return version, nil
}

func (r *versionRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*models.InvoiceVersion, error) {
	query := `
		SELECT id, invoice_id, version_number, data_snapshot, raw_ocr_json, confidence, is_final, rendered_document_url, created_by, created_at
		FROM invoice_versions
		WHERE invoice_id = $1
		ORDER BY version_number ASC
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.InvoiceVersion
	for rows.Next() {
		version := &models.InvoiceVersion{}
		if err := rows.Scan(&version.ID, &version.InvoiceID, &version.VersionNumber, &version.DataSnapshot, &version.RawOcrJSON, &version.Confidence, &version.IsFinal, &version.RenderedDocumentURL, &version.CreatedBy, &version.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

// MarkLatestFinal flags the newest version of the invoice as final so
// export freezes can pick it up.
func (r *versionRepo) MarkLatestFinal(ctx context.Context, invoiceID uuid.UUID) error {
	query := `
		UPDATE invoice_versions
		SET is_final = true
		WHERE id = (
			SELECT id FROM invoice_versions
			WHERE invoice_id = $1
			ORDER BY version_number DESC
			LIMIT 1
		)
	`
	_, err := r.db.Exec(ctx, query, invoiceID)
	return err
}

// AttachRenderedDocument is the one permitted post-creation mutation of a
// version: a one-time attachment of the rendered document URL.
func (r *versionRepo) AttachRenderedDocument(ctx context.Context, versionID uuid.UUID, url string) error {
	query := `
		UPDATE invoice_versions
		SET rendered_document_url = $1
		WHERE id = $2 AND rendered_document_url IS NULL
	`
	tag, err := r.db.Exec(ctx, query, url, versionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrConflict
	}
	return nil
}
