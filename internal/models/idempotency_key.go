package models

import (
	"time"

	"github.com/google/uuid"
)

// Idempotency key statuses. At most one IN_PROGRESS row per (key, user) at
// any time; COMPLETED and FAILED are terminal and replayable.
const (
	IdempotencyInProgress = "IN_PROGRESS"
	IdempotencyCompleted  = "COMPLETED"
	IdempotencyFailed     = "FAILED"
)

type IdempotencyKey struct {
	Key            string    `json:"key" db:"key"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Status         string    `json:"status" db:"status"`
	ResponseStatus *int      `json:"response_status" db:"response_status"`
	ResponseBody   []byte    `json:"response_body" db:"response_body"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
