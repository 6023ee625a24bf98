package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
)

type GSTService interface {
	ValidateInvoiceGSTIN(ctx context.Context, invoiceVersionID uuid.UUID, gstin string) (bool, error)
	CorrectGSTINUsingCompanyName(ctx context.Context, companyName string) (*models.GSTReference, error)
}

type gstService struct {
	gstRepo repositories.GSTRepository
}

func NewGSTService(gstRepo repositories.GSTRepository) GSTService {
	return &gstService{gstRepo: gstRepo}
}

// ValidateInvoiceGSTIN checks format and MOD-36 checksum and records the
// outcome against the version for the compliance trail.
func (s *gstService) ValidateInvoiceGSTIN(ctx context.Context, invoiceVersionID uuid.UUID, gstin string) (bool, error) {
	valid := common.IsValidGSTINFormat(gstin) && common.IsValidGSTINChecksum(gstin)

	status := models.GSTValidationVerified
	reason := "GSTIN format and checksum valid"
	if !valid {
		status = models.GSTValidationFailed
		reason = "GSTIN failed format or checksum validation"
	}

	logRow := &models.GSTValidationLog{
		ID:               uuid.New(),
		InvoiceVersionID: invoiceVersionID,
		GSTIN:            gstin,
		Status:           status,
		Reason:           reason,
	}
	if err := s.gstRepo.InsertValidationLog(ctx, logRow); err != nil {
		return false, fmt.Errorf("insert gst validation log: %w", err)
	}
	return valid, nil
}

// CorrectGSTINUsingCompanyName looks up a known GSTIN by extracted company
// name. Returns nil when no match exists; the caller leaves the invoice for
// manual review in that case.
func (s *gstService) CorrectGSTINUsingCompanyName(ctx context.Context, companyName string) (*models.GSTReference, error) {
	if companyName == "" {
		return nil, nil
	}
	ref, err := s.gstRepo.FindReferenceByCompanyName(ctx, companyName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Printf("no GSTIN reference match for company %q", companyName)
			return nil, nil
		}
		return nil, err
	}
	return ref, nil
}
