package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// RecordLLMCall persists the audit record of one LLM invocation attempt.
// Failures record an empty response and the error class.
func (s *Store) RecordLLMCall(ctx context.Context, businessID, callType, systemPrompt, inputText, response, errorClass string) (string, error) {
	call := &models.LLMCall{
		ID:           uuid.New().String(),
		BusinessID:   businessID,
		CallType:     callType,
		SystemPrompt: systemPrompt,
		InputText:    inputText,
		Response:     response,
		ErrorClass:   errorClass,
		Timestamp:    time.Now().UTC(),
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(call).Error; err != nil {
		return "", translate(err)
	}
	return call.ID, nil
}

// CountLLMCalls returns the number of call traces for a business.
func (s *Store) CountLLMCalls(ctx context.Context, businessID string) (int64, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(opCtx).Model(&models.LLMCall{}).
		Where("business_id = ?", businessID).
		Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// DeleteLLMCallsBefore removes call traces older than the cutoff, returning
// the number deleted. Used by the retention cleanup loop.
func (s *Store) DeleteLLMCallsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(opCtx).Delete(&models.LLMCall{}, "timestamp < ?", cutoff)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}
