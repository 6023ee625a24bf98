package models

import (
	"time"

	"github.com/google/uuid"
)

// GST validation outcomes recorded per invoice version.
const (
	GSTValidationVerified = "VERIFIED"
	GSTValidationFailed   = "FAILED"
)

type GSTValidationLog struct {
	ID               uuid.UUID `json:"id" db:"id"`
	InvoiceVersionID uuid.UUID `json:"invoice_version_id" db:"invoice_version_id"`
	GSTIN            string    `json:"gstin" db:"gstin"`
	Status           string    `json:"status" db:"status"`
	Reason           string    `json:"reason" db:"reason"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// GSTReference is a known (company name -> GSTIN) mapping used for
// auto-correction when an extracted GSTIN fails validation.
type GSTReference struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	GSTIN       string    `json:"gstin" db:"gstin"`
	Address     string    `json:"address" db:"address"`
}
