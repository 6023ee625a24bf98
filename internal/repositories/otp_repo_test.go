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

type OtpRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    OtpRepository
	context context.Context
}

func (suite *OtpRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewOtpRepo(mock)
	suite.context = context.Background()
}

func (suite *OtpRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestOtpRepoTestSuite(t *testing.T) {
	suite.Run(t, new(OtpRepoTestSuite))
}

func (suite *OtpRepoTestSuite) TestInsert_Success() {
	otp := &models.Otp{
		ID:        uuid.New(),
		Email:     "owner@example.com",
		Purpose:   "login",
		CodeHash:  "aabbcc",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	suite.mock.ExpectExec(`INSERT INTO otps`).
		WithArgs(otp.ID, otp.Email, otp.Purpose, otp.CodeHash, otp.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Insert(suite.context, otp)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *OtpRepoTestSuite) TestLatestActive_Found() {
	id := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "email", "purpose", "otp_hash", "consumed", "attempts", "expires_at", "created_at"}).
		AddRow(id, "owner@example.com", "login", "aabbcc", false, 2, now.Add(5*time.Minute), now)

	suite.mock.ExpectQuery(`SELECT id, email, purpose, otp_hash, consumed, attempts, expires_at, created_at`).
		WithArgs("owner@example.com", "login").
		WillReturnRows(rows)

	otp, err := suite.repo.LatestActive(suite.context, "owner@example.com", "login")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, otp.ID)
	assert.Equal(suite.T(), 2, otp.Attempts)
}

func (suite *OtpRepoTestSuite) TestLatestActive_NoActiveToken() {
	suite.mock.ExpectQuery(`SELECT id, email, purpose, otp_hash, consumed, attempts, expires_at, created_at`).
		WithArgs("owner@example.com", "login").
		WillReturnError(pgx.ErrNoRows)

	otp, err := suite.repo.LatestActive(suite.context, "owner@example.com", "login")
	assert.Nil(suite.T(), otp)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *OtpRepoTestSuite) TestConsume_FirstCallerWins() {
	id := uuid.New()

	suite.mock.ExpectExec(`UPDATE otps SET consumed = true WHERE id = \$1 AND consumed = false`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	consumed, err := suite.repo.Consume(suite.context, id)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), consumed)
}

func (suite *OtpRepoTestSuite) TestConsume_AlreadyConsumed() {
	id := uuid.New()

	suite.mock.ExpectExec(`UPDATE otps SET consumed = true WHERE id = \$1 AND consumed = false`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	consumed, err := suite.repo.Consume(suite.context, id)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), consumed)
}

func (suite *OtpRepoTestSuite) TestIncrementAttempts() {
	id := uuid.New()

	suite.mock.ExpectExec(`UPDATE otps SET attempts = attempts \+ 1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.IncrementAttempts(suite.context, id)
	assert.NoError(suite.T(), err)
}

func (suite *OtpRepoTestSuite) TestDeleteExpired() {
	suite.mock.ExpectExec(`DELETE FROM otps WHERE expires_at < NOW\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := suite.repo.DeleteExpired(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), deleted)
}
