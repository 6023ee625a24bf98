package services

import (
	"context"
	"log"

	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
)

// AuditService records who did what. Failures are logged, never propagated:
// an audit write must not fail the user-visible operation.
type AuditService interface {
	Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, actorID uuid.UUID, details models.JSONB)
	History(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

type auditService struct {
	auditRepo repositories.AuditLogsRepository
}

func NewAuditService(auditRepo repositories.AuditLogsRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, actorID uuid.UUID, details models.JSONB) {
	logRow := &models.AuditLog{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Details:    details,
	}
	if err := s.auditRepo.Create(ctx, logRow); err != nil {
		log.Printf("audit write failed for %s %s: %v", entityType, entityID, err)
	}
}

func (s *auditService) History(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	return s.auditRepo.ListByEntity(ctx, entityType, entityID, limit)
}
