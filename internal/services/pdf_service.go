package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

type DocumentService interface {
	RenderAndAttach(ctx context.Context, businessID, invoiceID uuid.UUID) (string, error)
}

type documentService struct {
	versionRepo repositories.VersionRepository
	invoiceRepo repositories.InvoiceRepository
	blobSvc     BlobService
	bucket      string
}

func NewDocumentService(versionRepo repositories.VersionRepository, invoiceRepo repositories.InvoiceRepository, blobSvc BlobService, bucket string) DocumentService {
	return &documentService{
		versionRepo: versionRepo,
		invoiceRepo: invoiceRepo,
		blobSvc:     blobSvc,
		bucket:      bucket,
	}
}

// RenderAndAttach renders the latest version snapshot to PDF, stores it, and
// attaches the presigned URL to the version. The attach is one-time; calling
// it again for the same version returns a conflict from the repository.
func (s *documentService) RenderAndAttach(ctx context.Context, businessID, invoiceID uuid.UUID) (string, error) {
	if _, err := s.invoiceRepo.GetByID(ctx, businessID, invoiceID); err != nil {
		return "", err
	}
	version, err := s.versionRepo.Latest(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	pdfBytes, err := renderSnapshotPDF(invoiceID, version)
	if err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}

	objectName := fmt.Sprintf("renders/%s/v%d.pdf", invoiceID, version.VersionNumber)
	if err := s.blobSvc.Put(ctx, s.bucket, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		return "", fmt.Errorf("store rendered pdf: %w", err)
	}

	url, err := s.blobSvc.PresignGet(ctx, s.bucket, objectName, 7*24*time.Hour)
	if err != nil {
		return "", fmt.Errorf("presign rendered pdf: %w", err)
	}

	if err := s.versionRepo.AttachRenderedDocument(ctx, version.ID, url); err != nil {
		return "", err
	}
	return url, nil
}

func renderSnapshotPDF(invoiceID uuid.UUID, version *models.InvoiceVersion) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice ID: %s", invoiceID))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Version: %d", version.VersionNumber))
	pdf.Ln(12)

	keys := make([]string, 0, len(version.DataSnapshot))
	for key := range version.DataSnapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(60, 8, "Field")
	pdf.Cell(0, 8, "Value")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 10)
	for _, key := range keys {
		pdf.Cell(60, 7, key)
		pdf.Cell(0, 7, fmt.Sprintf("%v", version.DataSnapshot[key]))
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
