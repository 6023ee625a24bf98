package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses. Status is advanced only by the OCR worker or the
// finalize operation; invoices are never deleted, only superseded in status.
const (
	InvoiceStatusQueued       = "QUEUED"
	InvoiceStatusNeedsReview  = "NEEDS_REVIEW"
	InvoiceStatusGSTCorrected = "GST_AUTO_CORRECTED"
	InvoiceStatusFinalized    = "FINALIZED"
)

type Invoice struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	BusinessID  uuid.UUID  `json:"business_id" db:"business_id"`
	Status      string     `json:"status" db:"status"`
	GSTIN       *string    `json:"gstin" db:"gstin"`
	Address     *string    `json:"address" db:"address"`
	FilePath    string     `json:"file_path" db:"file_path"`
	FileType    string     `json:"file_type" db:"file_type"`
	FinalizedAt *time.Time `json:"finalized_at" db:"finalized_at"`
	CreatedBy   uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
