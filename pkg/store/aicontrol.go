package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// SetAIControl upserts a pause/resume flag at the given scope. Exactly one
// row exists per (business, scope, conversation, user) tuple.
func (s *Store) SetAIControl(ctx context.Context, businessID, scope, conversationID, userID string, paused bool, expiresAt *time.Time) (*models.AIControlSetting, error) {
	switch scope {
	case models.AIControlScopeBusiness:
		conversationID, userID = "", ""
	case models.AIControlScopeConversation:
		if conversationID == "" {
			return nil, NewValidationError("conversation_id", "required for conversation scope")
		}
		userID = ""
	case models.AIControlScopeUser:
		if userID == "" {
			return nil, NewValidationError("user_id", "required for user scope")
		}
		conversationID = ""
	default:
		return nil, NewValidationError("scope", "invalid")
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	var setting models.AIControlSetting
	err := s.db.WithContext(opCtx).
		Where("business_id = ? AND scope = ? AND conversation_id = ? AND user_id = ?",
			businessID, scope, conversationID, userID).
		First(&setting).Error
	switch translate(err) {
	case nil:
		setting.Paused = paused
		setting.ExpiresAt = expiresAt
		setting.UpdatedAt = now
		if err := s.db.WithContext(opCtx).Save(&setting).Error; err != nil {
			return nil, translate(err)
		}
	case ErrNotFound:
		setting = models.AIControlSetting{
			ID:             uuid.New().String(),
			BusinessID:     businessID,
			Scope:          scope,
			ConversationID: conversationID,
			UserID:         userID,
			Paused:         paused,
			ExpiresAt:      expiresAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.db.WithContext(opCtx).Create(&setting).Error; err != nil {
			return nil, translate(err)
		}
	default:
		return nil, translate(err)
	}
	return &setting, nil
}

// AIPaused resolves the pause state for a conversation. Resolution order:
// conversation scope, then user scope, then business scope; the first
// unexpired paused row wins.
func (s *Store) AIPaused(ctx context.Context, businessID, conversationID, userID string) (bool, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var settings []models.AIControlSetting
	if err := s.db.WithContext(opCtx).
		Where("business_id = ?", businessID).
		Find(&settings).Error; err != nil {
		return false, translate(err)
	}

	now := time.Now().UTC()
	byScope := map[string]*models.AIControlSetting{}
	for i := range settings {
		st := &settings[i]
		switch st.Scope {
		case models.AIControlScopeConversation:
			if st.ConversationID == conversationID {
				byScope[st.Scope] = st
			}
		case models.AIControlScopeUser:
			if st.UserID == userID {
				byScope[st.Scope] = st
			}
		case models.AIControlScopeBusiness:
			byScope[st.Scope] = st
		}
	}

	for _, scope := range []string{
		models.AIControlScopeConversation,
		models.AIControlScopeUser,
		models.AIControlScopeBusiness,
	} {
		if st, ok := byScope[scope]; ok {
			return st.Active(now), nil
		}
	}
	return false, nil
}

// DeleteExpiredAIControls removes pause rows whose expiry has passed.
func (s *Store) DeleteExpiredAIControls(ctx context.Context, now time.Time) (int64, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(opCtx).
		Delete(&models.AIControlSetting{}, "expires_at IS NOT NULL AND expires_at < ?", now)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}
