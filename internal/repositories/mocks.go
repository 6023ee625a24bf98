package repositories

import (
	"context"
	"time"

	"gstvault/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Testify mocks for service-level tests.

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) CreateWithJob(ctx context.Context, invoice *models.Invoice, job *models.OcrJob) error {
	args := m.Called(ctx, invoice, job)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Invoice, error) {
	args := m.Called(ctx, businessID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateGSTCorrection(ctx context.Context, id uuid.UUID, gstin, address string) error {
	args := m.Called(ctx, id, gstin, address)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Finalize(ctx context.Context, businessID, id uuid.UUID) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) MaxVersionNumber(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	args := m.Called(ctx, invoiceID)
	return args.Int(0), args.Error(1)
}

func (m *MockVersionRepository) InsertGuarded(ctx context.Context, version *models.InvoiceVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockVersionRepository) Latest(ctx context.Context, invoiceID uuid.UUID) (*models.InvoiceVersion, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceVersion), args.Error(1)
}

func (m *MockVersionRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*models.InvoiceVersion, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InvoiceVersion), args.Error(1)
}

func (m *MockVersionRepository) MarkLatestFinal(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

func (m *MockVersionRepository) AttachRenderedDocument(ctx context.Context, versionID uuid.UUID, url string) error {
	args := m.Called(ctx, versionID, url)
	return args.Error(0)
}

type MockOcrJobRepository struct {
	mock.Mock
}

func (m *MockOcrJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.OcrJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OcrJob), args.Error(1)
}

func (m *MockOcrJobRepository) GetForBusiness(ctx context.Context, businessID, id uuid.UUID) (*models.OcrJob, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OcrJob), args.Error(1)
}

func (m *MockOcrJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOcrJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOcrJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	args := m.Called(ctx, id, errorMessage)
	return args.Error(0)
}

func (m *MockOcrJobRepository) StuckQueued(ctx context.Context, olderThan time.Duration) ([]*models.OcrJob, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OcrJob), args.Error(1)
}

type MockExportRepository struct {
	mock.Mock
}

func (m *MockExportRepository) LatestFinalVersionIDs(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockExportRepository) CreateWithLinks(ctx context.Context, export *models.Export, versionIDs []uuid.UUID) error {
	args := m.Called(ctx, export, versionIDs)
	return args.Error(0)
}

func (m *MockExportRepository) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Export, error) {
	args := m.Called(ctx, businessID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Export), args.Error(1)
}

type MockOtpRepository struct {
	mock.Mock
}

func (m *MockOtpRepository) Insert(ctx context.Context, otp *models.Otp) error {
	args := m.Called(ctx, otp)
	return args.Error(0)
}

func (m *MockOtpRepository) LatestActive(ctx context.Context, email, purpose string) (*models.Otp, error) {
	args := m.Called(ctx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Otp), args.Error(1)
}

func (m *MockOtpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOtpRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOtpRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockGSTRepository struct {
	mock.Mock
}

func (m *MockGSTRepository) InsertValidationLog(ctx context.Context, logRow *models.GSTValidationLog) error {
	args := m.Called(ctx, logRow)
	return args.Error(0)
}

func (m *MockGSTRepository) FindReferenceByCompanyName(ctx context.Context, companyName string) (*models.GSTReference, error) {
	args := m.Called(ctx, companyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GSTReference), args.Error(1)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, logRow *models.AuditLog) error {
	args := m.Called(ctx, logRow)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, entityType, entityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) Claim(ctx context.Context, key string, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, key, userID, ttl)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) Get(ctx context.Context, key string, userID uuid.UUID) (*models.IdempotencyKey, error) {
	args := m.Called(ctx, key, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IdempotencyKey), args.Error(1)
}

func (m *MockIdempotencyRepository) Finalize(ctx context.Context, key string, userID uuid.UUID, status string, responseStatus int, responseBody []byte) error {
	args := m.Called(ctx, key, userID, status, responseStatus, responseBody)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
