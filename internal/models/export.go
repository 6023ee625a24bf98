package models

import (
	"time"

	"github.com/google/uuid"
)

// Export is a frozen snapshot of invoice versions. Always created with
// Locked=true; its links are never altered or removed after creation.
type Export struct {
	ID              uuid.UUID `json:"id" db:"id"`
	BusinessID      uuid.UUID `json:"business_id" db:"business_id"`
	FinancialYearID uuid.UUID `json:"financial_year_id" db:"financial_year_id"`
	Month           int       `json:"month" db:"month"`
	ExportType      string    `json:"export_type" db:"export_type"`
	Locked          bool      `json:"locked" db:"locked"`
	CreatedBy       uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ExportInvoiceLink joins an export to one frozen invoice version.
type ExportInvoiceLink struct {
	ExportID         uuid.UUID `json:"export_id" db:"export_id"`
	InvoiceVersionID uuid.UUID `json:"invoice_version_id" db:"invoice_version_id"`
}
