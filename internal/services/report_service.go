package services

import (
	"context"
	"errors"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
)

// GSTR1Summary aggregates finalized invoice snapshots for a filing period.
type GSTR1Summary struct {
	InvoiceCount int     `json:"invoice_count"`
	TaxableValue float64 `json:"taxable_value"`
	CGST         float64 `json:"cgst"`
	SGST         float64 `json:"sgst"`
	IGST         float64 `json:"igst"`
	Total        float64 `json:"total"`
}

type ReportService interface {
	GSTR1Summary(ctx context.Context, businessID uuid.UUID) (*GSTR1Summary, error)
}

type reportService struct {
	invoiceRepo repositories.InvoiceRepository
	versionRepo repositories.VersionRepository
}

func NewReportService(invoiceRepo repositories.InvoiceRepository, versionRepo repositories.VersionRepository) ReportService {
	return &reportService{invoiceRepo: invoiceRepo, versionRepo: versionRepo}
}

func (s *reportService) GSTR1Summary(ctx context.Context, businessID uuid.UUID) (*GSTR1Summary, error) {
	invoices, err := s.invoiceRepo.List(ctx, businessID, 1000, 0)
	if err != nil {
		return nil, err
	}

	summary := &GSTR1Summary{}
	for _, invoice := range invoices {
		if invoice.Status != models.InvoiceStatusFinalized {
			continue
		}
		version, err := s.versionRepo.Latest(ctx, invoice.ID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, err
		}
		summary.InvoiceCount++
		summary.TaxableValue += numberField(version.DataSnapshot, "taxable_value")
		summary.CGST += numberField(version.DataSnapshot, "cgst")
		summary.SGST += numberField(version.DataSnapshot, "sgst")
		summary.IGST += numberField(version.DataSnapshot, "igst")
		summary.Total += numberField(version.DataSnapshot, "total")
	}
	return summary, nil
}

func numberField(snapshot models.JSONB, key string) float64 {
	if snapshot == nil {
		return 0
	}
	if value, ok := snapshot[key].(float64); ok {
		return value
	}
	return 0
}
