package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	ActionFinalized = "FINALIZED"
	ActionCorrected = "CORRECTED"
	ActionFrozen    = "FROZEN"
)

// AuditLog records who did what to which entity
type AuditLog struct {
	ID         uuid.UUID `json:"id" db:"id"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id" db:"entity_id"`
	Action     string    `json:"action" db:"action"`
	ActorID    uuid.UUID `json:"actor_id" db:"actor_id"`
	Details    JSONB     `json:"details" db:"details"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
