package repositories

import (
	"context"
	"errors"
	"time"

	"gstvault/internal/common"
	"gstvault/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdempotencyRepository interface {
	Claim(ctx context.Context, key string, userID uuid.UUID, ttl time.Duration) error
	Get(ctx context.Context, key string, userID uuid.UUID) (*models.IdempotencyKey, error)
	Finalize(ctx context.Context, key string, userID uuid.UUID, status string, responseStatus int, responseBody []byte) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type idempotencyRepo struct {
	db Database
}

func NewIdempotencyRepo(db Database) IdempotencyRepository {
	return &idempotencyRepo{db: db}
}

// Claim attempts the atomic insert of an IN_PROGRESS row. The uniqueness
// constraint on (key, user_id) is the whole mechanism: a duplicate-key error
// means some earlier request holds or held the key, and the caller re-reads.
func (r *idempotencyRepo) Claim(ctx context.Context, key string, userID uuid.UUID, ttl time.Duration) error {
	query := `
		INSERT INTO idempotency_keys (key, user_id, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.db.Exec(ctx, query, key, userID, models.IdempotencyInProgress, time.Now().Add(ttl))
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *idempotencyRepo) Get(ctx context.Context, key string, userID uuid.UUID) (*models.IdempotencyKey, error) {
	record := &models.IdempotencyKey{}
	query := `
		SELECT key, user_id, status, response_status, response_body, expires_at, created_at
		FROM idempotency_keys
		WHERE key = $1 AND user_id = $2
	`
	err := r.db.QueryRow(ctx, query, key, userID).Scan(&record.Key, &record.UserID, &record.Status, &record.ResponseStatus, &record.ResponseBody, &record.ExpiresAt, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *idempotencyRepo) Finalize(ctx context.Context, key string, userID uuid.UUID, status string, responseStatus int, responseBody []byte) error {
	query := `
		UPDATE idempotency_keys
		SET status = $1, response_status = $2, response_body = $3
		WHERE key = $4 AND user_id = $5
	`
	_, err := r.db.Exec(ctx, query, status, responseStatus, responseBody, key, userID)
	return err
}

// DeleteExpired sweeps rows past their TTL, including any stuck IN_PROGRESS
// rows left by a finalize write that never landed.
func (r *idempotencyRepo) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM idempotency_keys WHERE expires_at < NOW()`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
