package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// OpenOrResumeConversation returns the active conversation for the
// (business, user, session) tuple, opening a new one when none exists.
func (s *Store) OpenOrResumeConversation(ctx context.Context, businessID, userID, agentID, sessionID string) (*models.Conversation, error) {
	if businessID == "" {
		return nil, NewValidationError("business_id", "required")
	}
	if userID == "" {
		return nil, NewValidationError("user_id", "required")
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(opCtx).
		Where("business_id = ? AND user_id = ? AND status = ?", businessID, userID, models.ConversationStatusActive)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}

	var conv models.Conversation
	err := q.Order("start_time desc").First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if translate(err) != ErrNotFound {
		return nil, translate(err)
	}

	now := time.Now().UTC()
	conv = models.Conversation{
		ID:          uuid.New().String(),
		BusinessID:  businessID,
		UserID:      userID,
		AgentID:     agentID,
		SessionID:   sessionID,
		StartTime:   now,
		LastUpdated: now,
		Status:      models.ConversationStatusActive,
	}
	if err := s.db.WithContext(opCtx).Create(&conv).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

// GetConversation fetches a conversation scoped to a business.
func (s *Store) GetConversation(ctx context.Context, businessID, conversationID string) (*models.Conversation, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var conv models.Conversation
	if err := s.db.WithContext(opCtx).First(&conv, "conversation_id = ?", conversationID).Error; err != nil {
		return nil, translate(err)
	}
	if businessID != "" && conv.BusinessID != businessID {
		return nil, ErrForbidden
	}
	return &conv, nil
}

// ListConversations lists a user's conversations with a business, most
// recent first.
func (s *Store) ListConversations(ctx context.Context, businessID, userID string) ([]models.Conversation, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var convs []models.Conversation
	if err := s.db.WithContext(opCtx).
		Where("business_id = ? AND user_id = ?", businessID, userID).
		Order("start_time desc").
		Find(&convs).Error; err != nil {
		return nil, translate(err)
	}
	return convs, nil
}

// AppendMessage persists one utterance. CreatedAt is assigned here and is
// the authoritative message order.
func (s *Store) AppendMessage(ctx context.Context, conversationID, senderType, content string) (*models.Message, error) {
	if !models.ValidSenderType(senderType) {
		return nil, NewValidationError("sender_type", "invalid")
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Content:        content,
		SenderType:     senderType,
		CreatedAt:      time.Now().UTC(),
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(msg).Error; err != nil {
		return nil, translate(err)
	}
	return msg, nil
}

// LastMessages returns the most recent n messages, oldest first.
func (s *Store) LastMessages(ctx context.Context, conversationID string, n int) ([]models.Message, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var msgs []models.Message
	if err := s.db.WithContext(opCtx).
		Where("conversation_id = ?", conversationID).
		Order("created_at desc").
		Limit(n).
		Find(&msgs).Error; err != nil {
		return nil, translate(err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListMessages returns every message of a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var msgs []models.Message
	if err := s.db.WithContext(opCtx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&msgs).Error; err != nil {
		return nil, translate(err)
	}
	return msgs, nil
}

// SetConversationStage moves a conversation to a new current stage.
func (s *Store) SetConversationStage(ctx context.Context, conversationID, stageID string) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(opCtx).Model(&models.Conversation{}).
		Where("conversation_id = ?", conversationID).
		Updates(map[string]any{
			"current_stage_id": stageID,
			"last_updated":     time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseConversation marks a conversation completed (or errored). Further
// inbound messages are persisted but no longer answered.
func (s *Store) CloseConversation(ctx context.Context, conversationID, status string) error {
	if status != models.ConversationStatusCompleted && status != models.ConversationStatusError {
		return NewValidationError("status", "must be completed or error")
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(opCtx).Model(&models.Conversation{}).
		Where("conversation_id = ?", conversationID).
		Updates(map[string]any{
			"status":       status,
			"last_updated": time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchConversation updates last_updated and the last generation call tag.
func (s *Store) TouchConversation(ctx context.Context, conversationID, llmCallID string) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	updates := map[string]any{"last_updated": time.Now().UTC()}
	if llmCallID != "" {
		updates["llm_call_id"] = llmCallID
	}
	res := s.db.WithContext(opCtx).Model(&models.Conversation{}).
		Where("conversation_id = ?", conversationID).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordExtractedData persists one structured extraction result.
func (s *Store) RecordExtractedData(ctx context.Context, conversationID, stageID, dataType string, data models.JSONMap) (*models.ExtractedData, error) {
	row := &models.ExtractedData{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		StageID:        stageID,
		DataType:       dataType,
		Data:           data,
		CreatedAt:      time.Now().UTC(),
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(row).Error; err != nil {
		return nil, translate(err)
	}
	return row, nil
}

// ListExtractedData returns a conversation's extraction rows, oldest first.
func (s *Store) ListExtractedData(ctx context.Context, conversationID string) ([]models.ExtractedData, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []models.ExtractedData
	if err := s.db.WithContext(opCtx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}
