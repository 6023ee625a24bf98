package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
)

// versionInsertAttempts bounds the optimistic read-max-then-insert loop.
// Contention on a single invoice is rare; one retry almost always wins.
const versionInsertAttempts = 2

type VersioningService interface {
	CreateVersion(ctx context.Context, invoiceID uuid.UUID, snapshot, rawOcr models.JSONB, confidence *float64, actorID uuid.UUID) (*models.InvoiceVersion, error)
	CreateCorrection(ctx context.Context, businessID, invoiceID uuid.UUID, snapshot models.JSONB, actorID uuid.UUID) (*models.InvoiceVersion, error)
	Finalize(ctx context.Context, businessID, invoiceID, actorID uuid.UUID) error
	Latest(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.InvoiceVersion, error)
	ListVersions(ctx context.Context, businessID, invoiceID uuid.UUID) ([]*models.InvoiceVersion, error)
}

type versioningService struct {
	versionRepo repositories.VersionRepository
	invoiceRepo repositories.InvoiceRepository
	auditSvc    AuditService
}

func NewVersioningService(versionRepo repositories.VersionRepository, invoiceRepo repositories.InvoiceRepository, auditSvc AuditService) VersioningService {
	return &versioningService{
		versionRepo: versionRepo,
		invoiceRepo: invoiceRepo,
		auditSvc:    auditSvc,
	}
}

// CreateVersion appends the next version in the chain using optimistic
// concurrency: read max, insert max+1, and retry once if a concurrent writer
// took the slot. Every version creation goes through this single path, the
// initial OCR result included; nothing hardcodes version 1.
func (s *versioningService) CreateVersion(ctx context.Context, invoiceID uuid.UUID, snapshot, rawOcr models.JSONB, confidence *float64, actorID uuid.UUID) (*models.InvoiceVersion, error) {
	var created *models.InvoiceVersion

	err := common.WithBoundedRetry(ctx, versionInsertAttempts, 10*time.Millisecond, func(ctx context.Context) (bool, error) {
		maxVersion, err := s.versionRepo.MaxVersionNumber(ctx, invoiceID)
		if err != nil {
			return false, fmt.Errorf("read max version: %w", err)
		}

		version := &models.InvoiceVersion{
			ID:            uuid.New(),
			InvoiceID:     invoiceID,
			VersionNumber: maxVersion + 1,
			DataSnapshot:  snapshot,
			RawOcrJSON:    rawOcr,
			Confidence:    confidence,
			CreatedBy:     actorID,
		}

		if err := s.versionRepo.InsertGuarded(ctx, version); err != nil {
			if common.IsUniqueViolation(err) {
				// Concurrent writer won the race; retry with a fresh max.
				return true, err
			}
			return false, err
		}
		created = version
		return false, nil
	})

	if err != nil {
		if errors.Is(err, common.ErrLocked) {
			return nil, common.ErrLocked
		}
		if common.IsUniqueViolation(err) {
			return nil, common.ErrHighContention
		}
		return nil, err
	}
	return created, nil
}

// CreateCorrection is the user-facing edit path. It shares CreateVersion
// with the OCR path so upload retries and manual edits racing each other
// still produce a contiguous chain.
func (s *versioningService) CreateCorrection(ctx context.Context, businessID, invoiceID uuid.UUID, snapshot models.JSONB, actorID uuid.UUID) (*models.InvoiceVersion, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, businessID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoiceStatusFinalized {
		return nil, common.ErrConflict
	}

	version, err := s.CreateVersion(ctx, invoiceID, snapshot, nil, nil, actorID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "invoice", invoiceID, models.ActionCorrected, actorID, models.JSONB{
		"version_number": version.VersionNumber,
	})
	return version, nil
}

// Finalize flips the invoice to FINALIZED and flags its newest version as
// final. Re-finalizing returns a conflict rather than a silent success: it
// signals a client-side state-tracking bug.
func (s *versioningService) Finalize(ctx context.Context, businessID, invoiceID, actorID uuid.UUID) error {
	if _, err := s.invoiceRepo.GetByID(ctx, businessID, invoiceID); err != nil {
		return err
	}

	if err := s.invoiceRepo.Finalize(ctx, businessID, invoiceID); err != nil {
		return err
	}
	if err := s.versionRepo.MarkLatestFinal(ctx, invoiceID); err != nil {
		return fmt.Errorf("mark latest version final: %w", err)
	}

	s.auditSvc.Record(ctx, "invoice", invoiceID, models.ActionFinalized, actorID, nil)
	return nil
}

func (s *versioningService) Latest(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.InvoiceVersion, error) {
	if _, err := s.invoiceRepo.GetByID(ctx, businessID, invoiceID); err != nil {
		return nil, err
	}
	return s.versionRepo.Latest(ctx, invoiceID)
}

func (s *versioningService) ListVersions(ctx context.Context, businessID, invoiceID uuid.UUID) ([]*models.InvoiceVersion, error) {
	if _, err := s.invoiceRepo.GetByID(ctx, businessID, invoiceID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByInvoice(ctx, invoiceID)
}
