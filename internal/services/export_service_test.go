package services

import (
	"context"
	"testing"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ExportServiceTestSuite struct {
	suite.Suite
	mockExports *repositories.MockExportRepository
	mockAudit   *repositories.MockAuditLogsRepository
	service     ExportService
	businessID  uuid.UUID
	fyID        uuid.UUID
	actorID     uuid.UUID
	context     context.Context
}

func (suite *ExportServiceTestSuite) SetupTest() {
	suite.mockExports = &repositories.MockExportRepository{}
	suite.mockAudit = &repositories.MockAuditLogsRepository{}
	suite.service = NewExportService(suite.mockExports, NewAuditService(suite.mockAudit))
	suite.businessID = uuid.New()
	suite.fyID = uuid.New()
	suite.actorID = uuid.New()
	suite.context = context.Background()

	suite.mockExports.Test(suite.T())
	suite.mockAudit.Test(suite.T())
}

func TestExportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExportServiceTestSuite))
}

func (suite *ExportServiceTestSuite) TestFreeze_Success() {
	versionIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	suite.mockExports.On("LatestFinalVersionIDs", mock.Anything, suite.businessID).Return(versionIDs, nil)
	suite.mockExports.On("CreateWithLinks", mock.Anything, mock.MatchedBy(func(e *models.Export) bool {
		return e.BusinessID == suite.businessID && e.Locked && e.Month == 7
	}), versionIDs).Return(nil)
	suite.mockAudit.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := suite.service.Freeze(suite.context, suite.businessID, suite.fyID, 7, "GSTR1", suite.actorID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, result.VersionCount)
	assert.NotEqual(suite.T(), uuid.Nil, result.ExportID)
}

func (suite *ExportServiceTestSuite) TestFreeze_NothingFinalized() {
	suite.mockExports.On("LatestFinalVersionIDs", mock.Anything, suite.businessID).Return([]uuid.UUID{}, nil)

	result, err := suite.service.Freeze(suite.context, suite.businessID, suite.fyID, 7, "GSTR1", suite.actorID)
	assert.Nil(suite.T(), result)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	suite.mockExports.AssertNotCalled(suite.T(), "CreateWithLinks", mock.Anything, mock.Anything, mock.Anything)
}
