package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
)

const (
	maxImageSize = 5 * 1024 * 1024
	maxPdfSize   = 10 * 1024 * 1024
)

// OcrEnqueuer hands a payload to the durable job queue. Implemented by the
// asynq client wrapper in internal/jobs.
type OcrEnqueuer interface {
	EnqueueOcr(ctx context.Context, payload models.OcrQueuePayload) error
}

// UploadInput is one file in an upload request.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UploadResult reports the durable identifiers for one accepted file.
type UploadResult struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
	JobID     uuid.UUID `json:"jobId"`
	FilePath  string    `json:"filePath"`
}

type UploadService interface {
	UploadInvoice(ctx context.Context, businessID, userID uuid.UUID, requestID string, input UploadInput) (*UploadResult, error)
}

type uploadService struct {
	blobSvc     BlobService
	invoiceRepo repositories.InvoiceRepository
	enqueuer    OcrEnqueuer
	bucket      string
}

func NewUploadService(blobSvc BlobService, invoiceRepo repositories.InvoiceRepository, enqueuer OcrEnqueuer, bucket string) UploadService {
	return &uploadService{
		blobSvc:     blobSvc,
		invoiceRepo: invoiceRepo,
		enqueuer:    enqueuer,
		bucket:      bucket,
	}
}

// UploadInvoice binds blob upload, DB record creation and job enqueue.
// Ordering and compensation:
//  1. blob put; failure aborts with nothing visible.
//  2. invoice + job rows in one transaction; failure removes the blob so no
//     visible record ever references an orphan.
//  3. enqueue; failure is logged as a zombie job and the request still
//     succeeds, because the committed rows are the durable intent and the
//     reconciliation sweep re-enqueues them.
func (s *uploadService) UploadInvoice(ctx context.Context, businessID, userID uuid.UUID, requestID string, input UploadInput) (*UploadResult, error) {
	ext, err := resolveExtension(input.FileName, input.ContentType)
	if err != nil {
		return nil, err
	}
	if err := checkSize(ext, input.Size); err != nil {
		return nil, err
	}

	invoiceID := uuid.New()
	jobID := uuid.New()
	objectName := fmt.Sprintf("invoices/%s/%s-%s", businessID, invoiceID, filepath.Base(input.FileName))

	if err := s.blobSvc.Put(ctx, s.bucket, objectName, input.Reader, input.Size, input.ContentType); err != nil {
		return nil, fmt.Errorf("file storage failed: %w", err)
	}

	invoice := &models.Invoice{
		ID:         invoiceID,
		BusinessID: businessID,
		Status:     models.InvoiceStatusQueued,
		FilePath:   objectName,
		FileType:   ext,
		CreatedBy:  userID,
	}
	job := &models.OcrJob{
		ID:         jobID,
		InvoiceID:  invoiceID,
		BusinessID: businessID,
		FilePath:   objectName,
		Status:     models.JobStatusQueued,
	}
	if err := s.invoiceRepo.CreateWithJob(ctx, invoice, job); err != nil {
		if cleanupErr := s.blobSvc.Remove(ctx, s.bucket, objectName); cleanupErr != nil {
			log.Printf("failed to clean up orphaned blob %s: %v", objectName, cleanupErr)
		}
		return nil, fmt.Errorf("database transaction failed: %w", err)
	}

	payload := models.OcrQueuePayload{
		JobID:      jobID.String(),
		InvoiceID:  invoiceID.String(),
		FilePath:   objectName,
		BusinessID: businessID.String(),
		RequestID:  requestID,
	}
	if err := s.enqueuer.EnqueueOcr(ctx, payload); err != nil {
		// DB committed but the queue never saw the job. The job row stays
		// QUEUED and the reconciliation sweep re-enqueues it.
		log.Printf("CRITICAL: job enqueue failed (zombie job) jobId=%s invoiceId=%s: %v", jobID, invoiceID, err)
	}

	return &UploadResult{
		InvoiceID: invoiceID,
		JobID:     jobID,
		FilePath:  objectName,
	}, nil
}

func resolveExtension(fileName, contentType string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch ext {
	case "jpg", "jpeg", "png", "pdf":
		return ext, nil
	}
	switch contentType {
	case "image/jpeg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "application/pdf":
		return "pdf", nil
	}
	return "", fmt.Errorf("%w: unsupported file type", common.ErrValidation)
}

func checkSize(ext string, size int64) error {
	if ext == "pdf" {
		if size > maxPdfSize {
			return fmt.Errorf("%w: PDF file too large (max 10MB)", common.ErrValidation)
		}
		return nil
	}
	if size > maxImageSize {
		return fmt.Errorf("%w: image file too large (max 5MB)", common.ErrValidation)
	}
	return nil
}
