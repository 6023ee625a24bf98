package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"
	"gstvault/internal/services"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// systemActorID owns versions created by the pipeline rather than a person.
var systemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// OcrProcessor executes one OCR job end to end. Deliveries are at-least-once
// so every step tolerates redelivery; the guard on an already COMPLETED job
// is what keeps exactly one version per job.
type OcrProcessor struct {
	jobRepo     repositories.OcrJobRepository
	invoiceRepo repositories.InvoiceRepository
	versionSvc  services.VersioningService
	gstSvc      services.GSTService
	blobSvc     services.BlobService
	ocrClient   services.OcrClient
	bucket      string
}

func NewOcrProcessor(jobRepo repositories.OcrJobRepository, invoiceRepo repositories.InvoiceRepository, versionSvc services.VersioningService, gstSvc services.GSTService, blobSvc services.BlobService, ocrClient services.OcrClient, bucket string) *OcrProcessor {
	return &OcrProcessor{
		jobRepo:     jobRepo,
		invoiceRepo: invoiceRepo,
		versionSvc:  versionSvc,
		gstSvc:      gstSvc,
		blobSvc:     blobSvc,
		ocrClient:   ocrClient,
		bucket:      bucket,
	}
}

// HandleOcrProcess is the asynq handler for TypeOcrProcess tasks. Returning
// an error hands the task back to the queue's retry policy; returning nil
// acks it.
func (p *OcrProcessor) HandleOcrProcess(ctx context.Context, t *asynq.Task) error {
	var payload models.OcrQueuePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal ocr payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("invalid jobId in payload: %v: %w", err, asynq.SkipRetry)
	}
	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invalid invoiceId in payload: %v: %w", err, asynq.SkipRetry)
	}

	// Idempotency guard: a redelivery after success but before the ack was
	// recorded must not create a second version.
	job, err := p.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status == models.JobStatusCompleted {
		log.Printf("job %s already completed, acking redelivery", jobID)
		return nil
	}

	if err := p.jobRepo.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	if err := p.process(ctx, jobID, invoiceID, payload); err != nil {
		if markErr := p.jobRepo.MarkFailed(ctx, jobID, err.Error()); markErr != nil {
			log.Printf("failed to mark job %s failed: %v", jobID, markErr)
		}
		return err
	}

	if err := p.jobRepo.MarkCompleted(ctx, jobID); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	log.Printf("ocr pipeline finished jobId=%s invoiceId=%s requestId=%s", jobID, invoiceID, payload.RequestID)
	return nil
}

func (p *OcrProcessor) process(ctx context.Context, jobID, invoiceID uuid.UUID, payload models.OcrQueuePayload) error {
	blob, err := p.blobSvc.Get(ctx, p.bucket, payload.FilePath)
	if err != nil {
		return fmt.Errorf("fetch source blob %s: %w", payload.FilePath, err)
	}
	defer blob.Close()

	result, err := p.ocrClient.Process(ctx, payload.FilePath, blob, map[string]string{
		"jobId":      payload.JobID,
		"invoiceId":  payload.InvoiceID,
		"businessId": payload.BusinessID,
		"requestId":  payload.RequestID,
	})
	if err != nil {
		return fmt.Errorf("ocr extraction: %w", err)
	}

	version, err := p.versionSvc.CreateVersion(ctx, invoiceID, result.Data, result.Data, result.Confidence, systemActorID)
	if err != nil {
		if errors.Is(err, common.ErrLocked) {
			// The invoice was frozen by an export; retrying cannot succeed.
			return fmt.Errorf("invoice %s frozen by export: %w", invoiceID, asynq.SkipRetry)
		}
		return fmt.Errorf("create invoice version: %w", err)
	}

	status, err := p.runGSTStep(ctx, invoiceID, version.ID, result.Data)
	if err != nil {
		return err
	}
	if status != models.InvoiceStatusGSTCorrected {
		if err := p.invoiceRepo.UpdateStatus(ctx, invoiceID, models.InvoiceStatusNeedsReview); err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}
	}
	return nil
}

// runGSTStep validates the extracted GSTIN, attempting a company-name based
// correction on failure. Returns the invoice status it settled on.
func (p *OcrProcessor) runGSTStep(ctx context.Context, invoiceID, versionID uuid.UUID, data models.JSONB) (string, error) {
	gstin, _ := data["gstin"].(string)
	companyName, _ := data["company_name"].(string)

	if gstin == "" && companyName == "" {
		return models.InvoiceStatusNeedsReview, nil
	}

	valid := false
	if gstin != "" {
		var err error
		valid, err = p.gstSvc.ValidateInvoiceGSTIN(ctx, versionID, gstin)
		if err != nil {
			return "", fmt.Errorf("gst validation: %w", err)
		}
	}
	if valid {
		return models.InvoiceStatusNeedsReview, nil
	}

	ref, err := p.gstSvc.CorrectGSTINUsingCompanyName(ctx, companyName)
	if err != nil {
		return "", fmt.Errorf("gstin correction lookup: %w", err)
	}
	if ref == nil {
		return models.InvoiceStatusNeedsReview, nil
	}

	if err := p.invoiceRepo.UpdateGSTCorrection(ctx, invoiceID, ref.GSTIN, ref.Address); err != nil {
		return "", fmt.Errorf("apply gstin correction: %w", err)
	}
	return models.InvoiceStatusGSTCorrected, nil
}
