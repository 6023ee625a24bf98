package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB is a generic JSON document column
type JSONB map[string]interface{}

// InvoiceVersion is one link in an invoice's version chain. Version numbers
// are unique and contiguous per invoice starting at 1. Rows are immutable
// after creation except for the one-time attachment of RenderedDocumentURL.
type InvoiceVersion struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	InvoiceID           uuid.UUID  `json:"invoice_id" db:"invoice_id"`
	VersionNumber       int        `json:"version_number" db:"version_number"`
	DataSnapshot        JSONB      `json:"data_snapshot" db:"data_snapshot"`
	RawOcrJSON          JSONB      `json:"raw_ocr_json" db:"raw_ocr_json"`
	Confidence          *float64   `json:"confidence" db:"confidence"`
	IsFinal             bool       `json:"is_final" db:"is_final"`
	RenderedDocumentURL *string    `json:"rendered_document_url" db:"rendered_document_url"`
	CreatedBy           uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}
