package repositories

import (
	"context"
	"errors"

	"gstvault/internal/common"
	"gstvault/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OtpRepository interface {
	Insert(ctx context.Context, otp *models.Otp) error
	LatestActive(ctx context.Context, email, purpose string) (*models.Otp, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type otpRepo struct {
	db Database
}

func NewOtpRepo(db Database) OtpRepository {
	return &otpRepo{db: db}
}

func (r *otpRepo) Insert(ctx context.Context, otp *models.Otp) error {
	query := `
		INSERT INTO otps (id, email, purpose, otp_hash, consumed, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, false, 0, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, otp.ID, otp.Email, otp.Purpose, otp.CodeHash, otp.ExpiresAt)
	return err
}

// LatestActive returns the newest unconsumed, unexpired token for the
// (email, purpose) pair. Only that row counts for verification.
func (r *otpRepo) LatestActive(ctx context.Context, email, purpose string) (*models.Otp, error) {
	otp := &models.Otp{}
	query := `
		SELECT id, email, purpose, otp_hash, consumed, attempts, expires_at, created_at
		FROM otps
		WHERE email = $1 AND purpose = $2 AND consumed = false AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, email, purpose).Scan(&otp.ID, &otp.Email, &otp.Purpose, &otp.CodeHash, &otp.Consumed, &otp.Attempts, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return otp, nil
}

// IncrementAttempts is best effort: a lost increment under concurrent failed
// attempts is tolerable, the lockout still converges.
func (r *otpRepo) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE otps SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// Consume is the check-and-set that defeats the replay race: the update is
// conditioned on consumed still being false, so of two concurrent verifiers
// exactly one sees rows affected = 1.
func (r *otpRepo) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE otps SET consumed = true WHERE id = $1 AND consumed = false`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *otpRepo) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM otps WHERE expires_at < NOW()`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
