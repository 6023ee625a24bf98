package repositories

import (
	"context"

	"gstvault/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, logRow *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db Database
}

func NewAuditLogsRepo(db Database) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, logRow *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, entity_type, entity_id, action, actor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query, logRow.ID, logRow.EntityType, logRow.EntityID, logRow.Action, logRow.ActorID, logRow.Details)
	return err
}

func (r *auditLogsRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, entity_type, entity_id, action, actor_id, details, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		logRow := &models.AuditLog{}
		if err := rows.Scan(&logRow.ID, &logRow.EntityType, &logRow.EntityID, &logRow.Action, &logRow.ActorID, &logRow.Details, &logRow.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, logRow)
	}
	return logs, rows.Err()
}
