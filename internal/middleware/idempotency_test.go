package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type IdempotencyMiddlewareTestSuite struct {
	suite.Suite
	mockRepo *repositories.MockIdempotencyRepository
	mw       *IdempotencyMiddleware
	userID   uuid.UUID
}

func (suite *IdempotencyMiddlewareTestSuite) SetupTest() {
	suite.mockRepo = &repositories.MockIdempotencyRepository{}
	suite.mw = NewIdempotencyMiddleware(suite.mockRepo)
	suite.userID = uuid.New()
	suite.mockRepo.Test(suite.T())
}

func TestIdempotencyMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(IdempotencyMiddlewareTestSuite))
}

func (suite *IdempotencyMiddlewareTestSuite) request(key string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/upload", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	req = req.WithContext(context.WithValue(req.Context(), common.UserIDKey, suite.userID))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func (suite *IdempotencyMiddlewareTestSuite) TestNoHeaderPassesThrough() {
	c, _ := suite.request("")
	called := false
	handler := suite.mw.Middleware()(func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
	})

	err := handler(c)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), called)
	suite.mockRepo.AssertNotCalled(suite.T(), "Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IdempotencyMiddlewareTestSuite) TestFreshKeyRunsHandlerAndStoresResponse() {
	c, rec := suite.request("req-1")
	suite.mockRepo.On("Claim", mock.Anything, "req-1", suite.userID, mock.Anything).Return(nil)
	suite.mockRepo.On("Finalize", mock.Anything, "req-1", suite.userID, models.IdempotencyCompleted, http.StatusOK, mock.Anything).Return(nil)

	handler := suite.mw.Middleware()(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "created"})
	})

	err := handler(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "created")
	suite.mockRepo.AssertCalled(suite.T(), "Finalize", mock.Anything, "req-1", suite.userID, models.IdempotencyCompleted, http.StatusOK, mock.Anything)
}

func (suite *IdempotencyMiddlewareTestSuite) TestFailedHandlerStoredAsFailed() {
	c, rec := suite.request("req-2")
	suite.mockRepo.On("Claim", mock.Anything, "req-2", suite.userID, mock.Anything).Return(nil)
	suite.mockRepo.On("Finalize", mock.Anything, "req-2", suite.userID, models.IdempotencyFailed, http.StatusBadRequest, mock.Anything).Return(nil)

	handler := suite.mw.Middleware()(func(c echo.Context) error {
		return common.SendClientError(c, "bad input")
	})

	err := handler(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *IdempotencyMiddlewareTestSuite) TestDuplicateReplaysStoredResponse() {
	c, rec := suite.request("req-3")
	status := http.StatusOK
	suite.mockRepo.On("Claim", mock.Anything, "req-3", suite.userID, mock.Anything).Return(common.ErrDuplicateKey)
	suite.mockRepo.On("Get", mock.Anything, "req-3", suite.userID).Return(&models.IdempotencyKey{
		Key:            "req-3",
		UserID:         suite.userID,
		Status:         models.IdempotencyCompleted,
		ResponseStatus: &status,
		ResponseBody:   []byte(`{"message":"created"}`),
	}, nil)

	called := false
	handler := suite.mw.Middleware()(func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, map[string]string{"message": "should not run"})
	})

	err := handler(c)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), called)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), "created")
}

func (suite *IdempotencyMiddlewareTestSuite) TestDuplicateInFlightIsConflict() {
	c, rec := suite.request("req-4")
	suite.mockRepo.On("Claim", mock.Anything, "req-4", suite.userID, mock.Anything).Return(common.ErrDuplicateKey)
	suite.mockRepo.On("Get", mock.Anything, "req-4", suite.userID).Return(&models.IdempotencyKey{
		Key:    "req-4",
		UserID: suite.userID,
		Status: models.IdempotencyInProgress,
	}, nil)

	called := false
	handler := suite.mw.Middleware()(func(c echo.Context) error {
		called = true
		return nil
	})

	err := handler(c)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), called)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
}
