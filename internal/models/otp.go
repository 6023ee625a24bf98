package models

import (
	"time"

	"github.com/google/uuid"
)

// Otp stores only the SHA-256 hash of the issued code. The latest
// unconsumed, unexpired row per (email, purpose) is the active one.
// Consumed transitions false -> true exactly once via a conditional update.
type Otp struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Purpose   string    `json:"purpose" db:"purpose"`
	CodeHash  string    `json:"-" db:"otp_hash"`
	Consumed  bool      `json:"consumed" db:"consumed"`
	Attempts  int       `json:"attempts" db:"attempts"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
