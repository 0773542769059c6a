package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// WriteAudit persists one audit trail entry. Audit writes are durable before
// the HTTP response returns; callers must not fire-and-forget.
func (s *Store) WriteAudit(ctx context.Context, businessID, userID, actionType string, actionData models.JSONMap) error {
	entry := &models.AuditLog{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		UserID:     userID,
		ActionType: actionType,
		ActionData: actionData,
		CreatedAt:  time.Now().UTC(),
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(entry).Error; err != nil {
		return translate(err)
	}
	return nil
}

// ListAuditLogs returns a business's audit entries, newest first.
func (s *Store) ListAuditLogs(ctx context.Context, businessID string, limit int) ([]models.AuditLog, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(opCtx).
		Where("business_id = ?", businessID).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

// DeleteAuditLogsBefore removes audit entries older than the cutoff.
func (s *Store) DeleteAuditLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(opCtx).Delete(&models.AuditLog{}, "created_at < ?", cutoff)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}
