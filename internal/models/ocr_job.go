package models

import (
	"time"

	"github.com/google/uuid"
)

// OCR job statuses. QUEUED -> PROCESSING -> {COMPLETED | FAILED};
// FAILED -> PROCESSING again via queue redelivery.
const (
	JobStatusQueued     = "QUEUED"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// OcrJob drives creation of exactly one InvoiceVersion on success.
// Failed-exhausted jobs are retained for operator triage, never deleted.
type OcrJob struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	InvoiceID    uuid.UUID  `json:"invoice_id" db:"invoice_id"`
	BusinessID   uuid.UUID  `json:"business_id" db:"business_id"`
	FilePath     string     `json:"file_path" db:"file_path"`
	Status       string     `json:"status" db:"status"`
	ErrorMessage *string    `json:"error_message" db:"error_message"`
	ProcessedAt  *time.Time `json:"processed_at" db:"processed_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
