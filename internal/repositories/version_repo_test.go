package repositories

import (
	"context"
	"testing"
	"time"

	"gstvault/internal/common"
	"gstvault/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type VersionRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      VersionRepository
	invoiceID uuid.UUID
	context   context.Context
}

func (suite *VersionRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewVersionRepo(mock)
	suite.invoiceID = uuid.New()
	suite.context = context.Background()
}

func (suite *VersionRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestVersionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(VersionRepoTestSuite))
}

func (suite *VersionRepoTestSuite) TestMaxVersionNumber_NoVersionsYet() {
	rows := pgxmock.NewRows([]string{"coalesce"}).AddRow(0)

	suite.mock.ExpectQuery(`SELECT COALESCE\(MAX\(version_number\), 0\)`).
		WithArgs(suite.invoiceID).
		WillReturnRows(rows)

	max, err := suite.repo.MaxVersionNumber(suite.context, suite.invoiceID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, max)
}

func (suite *VersionRepoTestSuite) TestMaxVersionNumber_ExistingChain() {
	rows := pgxmock.NewRows([]string{"coalesce"}).AddRow(4)

	suite.mock.ExpectQuery(`SELECT COALESCE\(MAX\(version_number\), 0\)`).
		WithArgs(suite.invoiceID).
		WillReturnRows(rows)

	max, err := suite.repo.MaxVersionNumber(suite.context, suite.invoiceID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, max)
}

func (suite *VersionRepoTestSuite) TestInsertGuarded_Success() {
	version := &models.InvoiceVersion{
		ID:            uuid.New(),
		InvoiceID:     suite.invoiceID,
		VersionNumber: 3,
		DataSnapshot:  models.JSONB{"total": 100.0},
		CreatedBy:     uuid.New(),
	}

	suite.mock.ExpectExec(`INSERT INTO invoice_versions`).
		WithArgs(version.ID, version.InvoiceID, version.VersionNumber, version.DataSnapshot, version.RawOcrJSON, version.Confidence, version.IsFinal, version.CreatedBy).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.InsertGuarded(suite.context, version)
	assert.NoError(suite.T(), err)
}

func (suite *VersionRepoTestSuite) TestInsertGuarded_FrozenByExport() {
	version := &models.InvoiceVersion{
		ID:            uuid.New(),
		InvoiceID:     suite.invoiceID,
		VersionNumber: 3,
		CreatedBy:     uuid.New(),
	}

	// The NOT EXISTS guard matched an export link, so zero rows inserted.
	suite.mock.ExpectExec(`INSERT INTO invoice_versions`).
		WithArgs(version.ID, version.InvoiceID, version.VersionNumber, version.DataSnapshot, version.RawOcrJSON, version.Confidence, version.IsFinal, version.CreatedBy).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := suite.repo.InsertGuarded(suite.context, version)
	assert.ErrorIs(suite.T(), err, common.ErrLocked)
}

func (suite *VersionRepoTestSuite) TestLatest_NotFound() {
	suite.mock.ExpectQuery(`SELECT id, invoice_id, version_number`).
		WithArgs(suite.invoiceID).
		WillReturnError(pgx.ErrNoRows)

	version, err := suite.repo.Latest(suite.context, suite.invoiceID)
	assert.Nil(suite.T(), version)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *VersionRepoTestSuite) TestLatest_Found() {
	id := uuid.New()
	createdBy := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "invoice_id", "version_number", "data_snapshot", "raw_ocr_json", "confidence", "is_final", "rendered_document_url", "created_by", "created_at"}).
		AddRow(id, suite.invoiceID, 2, models.JSONB{"total": 42.0}, models.JSONB(nil), (*float64)(nil), false, (*string)(nil), createdBy, now)

	suite.mock.ExpectQuery(`SELECT id, invoice_id, version_number`).
		WithArgs(suite.invoiceID).
		WillReturnRows(rows)

	version, err := suite.repo.Latest(suite.context, suite.invoiceID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, version.VersionNumber)
	assert.Equal(suite.T(), id, version.ID)
}

func (suite *VersionRepoTestSuite) TestAttachRenderedDocument_OneTimeOnly() {
	versionID := uuid.New()

	suite.mock.ExpectExec(`UPDATE invoice_versions`).
		WithArgs("https://blobs/renders/v2.pdf", versionID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.AttachRenderedDocument(suite.context, versionID, "https://blobs/renders/v2.pdf")
	assert.NoError(suite.T(), err)

	// Second attach hits the rendered_document_url IS NULL condition.
	suite.mock.ExpectExec(`UPDATE invoice_versions`).
		WithArgs("https://blobs/renders/v2.pdf", versionID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = suite.repo.AttachRenderedDocument(suite.context, versionID, "https://blobs/renders/v2.pdf")
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}
