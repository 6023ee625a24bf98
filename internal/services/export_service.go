package services

import (
	"context"
	"fmt"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
)

// FreezeResult reports the outcome of an export freeze.
type FreezeResult struct {
	ExportID     uuid.UUID `json:"exportId"`
	VersionCount int       `json:"versionCount"`
}

type ExportService interface {
	Freeze(ctx context.Context, businessID, financialYearID uuid.UUID, month int, exportType string, actorID uuid.UUID) (*FreezeResult, error)
	List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Export, error)
}

type exportService struct {
	exportRepo repositories.ExportRepository
	auditSvc   AuditService
}

func NewExportService(exportRepo repositories.ExportRepository, auditSvc AuditService) ExportService {
	return &exportService{exportRepo: exportRepo, auditSvc: auditSvc}
}

// Freeze snapshots the latest finalized version of every finalized invoice
// and links them to a locked export in a single transaction. After commit,
// the ledger's write-time guard blocks any new version for those invoices.
func (s *exportService) Freeze(ctx context.Context, businessID, financialYearID uuid.UUID, month int, exportType string, actorID uuid.UUID) (*FreezeResult, error) {
	versionIDs, err := s.exportRepo.LatestFinalVersionIDs(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("snapshot finalized versions: %w", err)
	}
	if len(versionIDs) == 0 {
		return nil, fmt.Errorf("%w: no finalized invoices to export", common.ErrValidation)
	}

	export := &models.Export{
		ID:              uuid.New(),
		BusinessID:      businessID,
		FinancialYearID: financialYearID,
		Month:           month,
		ExportType:      exportType,
		Locked:          true,
		CreatedBy:       actorID,
	}
	if err := s.exportRepo.CreateWithLinks(ctx, export, versionIDs); err != nil {
		return nil, fmt.Errorf("freeze export: %w", err)
	}

	s.auditSvc.Record(ctx, "export", export.ID, models.ActionFrozen, actorID, models.JSONB{
		"version_count": len(versionIDs),
		"export_type":   exportType,
	})

	return &FreezeResult{ExportID: export.ID, VersionCount: len(versionIDs)}, nil
}

func (s *exportService) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Export, error) {
	return s.exportRepo.List(ctx, businessID, limit, offset)
}
