package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"
	"gstvault/internal/services"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockVersioningService struct {
	mock.Mock
}

func (m *MockVersioningService) CreateVersion(ctx context.Context, invoiceID uuid.UUID, snapshot, rawOcr models.JSONB, confidence *float64, actorID uuid.UUID) (*models.InvoiceVersion, error) {
	args := m.Called(ctx, invoiceID, snapshot, rawOcr, confidence, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceVersion), args.Error(1)
}

func (m *MockVersioningService) CreateCorrection(ctx context.Context, businessID, invoiceID uuid.UUID, snapshot models.JSONB, actorID uuid.UUID) (*models.InvoiceVersion, error) {
	args := m.Called(ctx, businessID, invoiceID, snapshot, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceVersion), args.Error(1)
}

func (m *MockVersioningService) Finalize(ctx context.Context, businessID, invoiceID, actorID uuid.UUID) error {
	args := m.Called(ctx, businessID, invoiceID, actorID)
	return args.Error(0)
}

func (m *MockVersioningService) Latest(ctx context.Context, businessID, invoiceID uuid.UUID) (*models.InvoiceVersion, error) {
	args := m.Called(ctx, businessID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceVersion), args.Error(1)
}

func (m *MockVersioningService) ListVersions(ctx context.Context, businessID, invoiceID uuid.UUID) ([]*models.InvoiceVersion, error) {
	args := m.Called(ctx, businessID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InvoiceVersion), args.Error(1)
}

type MockGSTService struct {
	mock.Mock
}

func (m *MockGSTService) ValidateInvoiceGSTIN(ctx context.Context, invoiceVersionID uuid.UUID, gstin string) (bool, error) {
	args := m.Called(ctx, invoiceVersionID, gstin)
	return args.Bool(0), args.Error(1)
}

func (m *MockGSTService) CorrectGSTINUsingCompanyName(ctx context.Context, companyName string) (*models.GSTReference, error) {
	args := m.Called(ctx, companyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GSTReference), args.Error(1)
}

type MockBlobService struct {
	mock.Mock
}

func (m *MockBlobService) Put(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, contentType)
	return args.Error(0)
}

func (m *MockBlobService) Get(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobService) Stat(ctx context.Context, bucketName, objectName string) (*services.BlobMetadata, error) {
	args := m.Called(ctx, bucketName, objectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BlobMetadata), args.Error(1)
}

func (m *MockBlobService) PresignPut(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockBlobService) PresignGet(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockBlobService) Remove(ctx context.Context, bucketName, objectName string) error {
	args := m.Called(ctx, bucketName, objectName)
	return args.Error(0)
}

func (m *MockBlobService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

type MockOcrClient struct {
	mock.Mock
}

func (m *MockOcrClient) Process(ctx context.Context, fileName string, file io.Reader, metadata map[string]string) (*services.OcrResult, error) {
	args := m.Called(ctx, fileName, file, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OcrResult), args.Error(1)
}

type OcrProcessorTestSuite struct {
	suite.Suite
	mockJobs     *repositories.MockOcrJobRepository
	mockInvoices *repositories.MockInvoiceRepository
	mockVersions *MockVersioningService
	mockGST      *MockGSTService
	mockBlob     *MockBlobService
	mockOcr      *MockOcrClient
	processor    *OcrProcessor
	jobID        uuid.UUID
	invoiceID    uuid.UUID
	businessID   uuid.UUID
	context      context.Context
}

func (suite *OcrProcessorTestSuite) SetupTest() {
	suite.mockJobs = &repositories.MockOcrJobRepository{}
	suite.mockInvoices = &repositories.MockInvoiceRepository{}
	suite.mockVersions = &MockVersioningService{}
	suite.mockGST = &MockGSTService{}
	suite.mockBlob = &MockBlobService{}
	suite.mockOcr = &MockOcrClient{}
	suite.processor = NewOcrProcessor(suite.mockJobs, suite.mockInvoices, suite.mockVersions, suite.mockGST, suite.mockBlob, suite.mockOcr, "invoices")
	suite.jobID = uuid.New()
	suite.invoiceID = uuid.New()
	suite.businessID = uuid.New()
	suite.context = context.Background()
}

func TestOcrProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(OcrProcessorTestSuite))
}

func (suite *OcrProcessorTestSuite) task() *asynq.Task {
	payload := models.OcrQueuePayload{
		JobID:      suite.jobID.String(),
		InvoiceID:  suite.invoiceID.String(),
		FilePath:   "invoices/file.pdf",
		BusinessID: suite.businessID.String(),
		RequestID:  "req-1",
	}
	data, _ := json.Marshal(payload)
	return asynq.NewTask(TypeOcrProcess, data)
}

func (suite *OcrProcessorTestSuite) queuedJob() *models.OcrJob {
	return &models.OcrJob{
		ID:         suite.jobID,
		InvoiceID:  suite.invoiceID,
		BusinessID: suite.businessID,
		FilePath:   "invoices/file.pdf",
		Status:     models.JobStatusQueued,
	}
}

func (suite *OcrProcessorTestSuite) TestHandle_MalformedPayloadSkipsRetry() {
	err := suite.processor.HandleOcrProcess(suite.context, asynq.NewTask(TypeOcrProcess, []byte("{not json")))
	assert.ErrorIs(suite.T(), err, asynq.SkipRetry)
	suite.mockJobs.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything)
}

func (suite *OcrProcessorTestSuite) TestHandle_RedeliveryOfCompletedJobCreatesNoSecondVersion() {
	job := suite.queuedJob()
	job.Status = models.JobStatusCompleted
	suite.mockJobs.On("GetByID", mock.Anything, suite.jobID).Return(job, nil)

	err := suite.processor.HandleOcrProcess(suite.context, suite.task())
	assert.NoError(suite.T(), err)
	suite.mockVersions.AssertNotCalled(suite.T(), "CreateVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockJobs.AssertNotCalled(suite.T(), "MarkProcessing", mock.Anything, mock.Anything)
}

func (suite *OcrProcessorTestSuite) TestHandle_SuccessWithoutGSTINLandsInReview() {
	suite.mockJobs.On("GetByID", mock.Anything, suite.jobID).Return(suite.queuedJob(), nil)
	suite.mockJobs.On("MarkProcessing", mock.Anything, suite.jobID).Return(nil)
	suite.mockBlob.On("Get", mock.Anything, "invoices", "invoices/file.pdf").Return(io.NopCloser(strings.NewReader("data")), nil)

	extracted := models.JSONB{"total": 100.0}
	suite.mockOcr.On("Process", mock.Anything, "invoices/file.pdf", mock.Anything, mock.Anything).Return(&services.OcrResult{
		Status: "success",
		Data:   extracted,
	}, nil)
	suite.mockVersions.On("CreateVersion", mock.Anything, suite.invoiceID, extracted, extracted, (*float64)(nil), systemActorID).Return(&models.InvoiceVersion{
		ID:            uuid.New(),
		InvoiceID:     suite.invoiceID,
		VersionNumber: 1,
	}, nil)
	suite.mockInvoices.On("UpdateStatus", mock.Anything, suite.invoiceID, models.InvoiceStatusNeedsReview).Return(nil)
	suite.mockJobs.On("MarkCompleted", mock.Anything, suite.jobID).Return(nil)

	err := suite.processor.HandleOcrProcess(suite.context, suite.task())
	assert.NoError(suite.T(), err)
	suite.mockJobs.AssertCalled(suite.T(), "MarkCompleted", mock.Anything, suite.jobID)
}

func (suite *OcrProcessorTestSuite) TestHandle_InvalidGSTINCorrectedFromCompanyName() {
	suite.mockJobs.On("GetByID", mock.Anything, suite.jobID).Return(suite.queuedJob(), nil)
	suite.mockJobs.On("MarkProcessing", mock.Anything, suite.jobID).Return(nil)
	suite.mockBlob.On("Get", mock.Anything, "invoices", "invoices/file.pdf").Return(io.NopCloser(strings.NewReader("data")), nil)

	extracted := models.JSONB{"gstin": "27BADBAD0000F1Z0", "company_name": "Acme Traders"}
	versionID := uuid.New()
	suite.mockOcr.On("Process", mock.Anything, "invoices/file.pdf", mock.Anything, mock.Anything).Return(&services.OcrResult{
		Status: "success",
		Data:   extracted,
	}, nil)
	suite.mockVersions.On("CreateVersion", mock.Anything, suite.invoiceID, extracted, extracted, (*float64)(nil), systemActorID).Return(&models.InvoiceVersion{
		ID:            versionID,
		InvoiceID:     suite.invoiceID,
		VersionNumber: 1,
	}, nil)
	suite.mockGST.On("ValidateInvoiceGSTIN", mock.Anything, versionID, "27BADBAD0000F1Z0").Return(false, nil)
	suite.mockGST.On("CorrectGSTINUsingCompanyName", mock.Anything, "Acme Traders").Return(&models.GSTReference{
		GSTIN:   "27AAPFU0939F1ZV",
		Address: "Mumbai",
	}, nil)
	suite.mockInvoices.On("UpdateGSTCorrection", mock.Anything, suite.invoiceID, "27AAPFU0939F1ZV", "Mumbai").Return(nil)
	suite.mockJobs.On("MarkCompleted", mock.Anything, suite.jobID).Return(nil)

	err := suite.processor.HandleOcrProcess(suite.context, suite.task())
	assert.NoError(suite.T(), err)
	suite.mockInvoices.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OcrProcessorTestSuite) TestHandle_FrozenInvoiceSkipsRetry() {
	suite.mockJobs.On("GetByID", mock.Anything, suite.jobID).Return(suite.queuedJob(), nil)
	suite.mockJobs.On("MarkProcessing", mock.Anything, suite.jobID).Return(nil)
	suite.mockBlob.On("Get", mock.Anything, "invoices", "invoices/file.pdf").Return(io.NopCloser(strings.NewReader("data")), nil)
	suite.mockOcr.On("Process", mock.Anything, "invoices/file.pdf", mock.Anything, mock.Anything).Return(&services.OcrResult{
		Status: "success",
		Data:   models.JSONB{"total": 1.0},
	}, nil)
	suite.mockVersions.On("CreateVersion", mock.Anything, suite.invoiceID, mock.Anything, mock.Anything, (*float64)(nil), systemActorID).Return(nil, common.ErrLocked)
	suite.mockJobs.On("MarkFailed", mock.Anything, suite.jobID, mock.AnythingOfType("string")).Return(nil)

	err := suite.processor.HandleOcrProcess(suite.context, suite.task())
	assert.ErrorIs(suite.T(), err, asynq.SkipRetry)
	suite.mockJobs.AssertCalled(suite.T(), "MarkFailed", mock.Anything, suite.jobID, mock.AnythingOfType("string"))
}

func (suite *OcrProcessorTestSuite) TestHandle_ExtractionFailureIsRetryable() {
	suite.mockJobs.On("GetByID", mock.Anything, suite.jobID).Return(suite.queuedJob(), nil)
	suite.mockJobs.On("MarkProcessing", mock.Anything, suite.jobID).Return(nil)
	suite.mockBlob.On("Get", mock.Anything, "invoices", "invoices/file.pdf").Return(io.NopCloser(strings.NewReader("data")), nil)
	suite.mockOcr.On("Process", mock.Anything, "invoices/file.pdf", mock.Anything, mock.Anything).Return(nil, errors.New("ocr service timeout"))
	suite.mockJobs.On("MarkFailed", mock.Anything, suite.jobID, mock.AnythingOfType("string")).Return(nil)

	err := suite.processor.HandleOcrProcess(suite.context, suite.task())
	assert.Error(suite.T(), err)
	assert.NotErrorIs(suite.T(), err, asynq.SkipRetry)
	suite.mockJobs.AssertNotCalled(suite.T(), "MarkCompleted", mock.Anything, mock.Anything)
}

func TestOcrRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, OcrRetryDelay(0, nil, nil))
	assert.Equal(t, 2*time.Second, OcrRetryDelay(1, nil, nil))
	assert.Equal(t, 4*time.Second, OcrRetryDelay(2, nil, nil))
}
