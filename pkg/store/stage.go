package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// CreateStageRequest carries the fields accepted at stage creation.
type CreateStageRequest struct {
	BusinessID                   string
	AgentID                      string
	StageName                    string
	StageDescription             string
	StageType                    string
	StageSelectionTemplateID     string
	DataExtractionTemplateID     string
	ResponseGenerationTemplateID string
}

// CreateStage creates a stage after verifying all three referenced templates
// exist and are owned by the same business.
func (s *Store) CreateStage(ctx context.Context, req CreateStageRequest) (*models.Stage, error) {
	if req.BusinessID == "" {
		return nil, NewValidationError("business_id", "required")
	}
	if req.StageName == "" {
		return nil, NewValidationError("stage_name", "required")
	}
	for field, id := range map[string]string{
		"stage_selection_template_id":     req.StageSelectionTemplateID,
		"data_extraction_template_id":     req.DataExtractionTemplateID,
		"response_generation_template_id": req.ResponseGenerationTemplateID,
	} {
		if id == "" {
			return nil, NewValidationError(field, "required")
		}
		if err := s.verifyTemplateOwnership(ctx, id, req.BusinessID, field); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	stg := &models.Stage{
		ID:                           uuid.New().String(),
		BusinessID:                   req.BusinessID,
		AgentID:                      req.AgentID,
		StageName:                    req.StageName,
		StageDescription:             req.StageDescription,
		StageType:                    req.StageType,
		StageSelectionTemplateID:     req.StageSelectionTemplateID,
		DataExtractionTemplateID:     req.DataExtractionTemplateID,
		ResponseGenerationTemplateID: req.ResponseGenerationTemplateID,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(stg).Error; err != nil {
		return nil, translate(err)
	}
	return stg, nil
}

func (s *Store) verifyTemplateOwnership(ctx context.Context, templateID, businessID, field string) error {
	tpl, err := s.getTemplateAnyBusiness(ctx, templateID)
	if err != nil {
		return NewValidationError(field, "template not found")
	}
	if tpl.BusinessID != businessID {
		return NewValidationError(field, "template belongs to another business")
	}
	return nil
}

// GetStage fetches a stage scoped to a business.
func (s *Store) GetStage(ctx context.Context, businessID, stageID string) (*models.Stage, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var stg models.Stage
	if err := s.db.WithContext(opCtx).First(&stg, "stage_id = ?", stageID).Error; err != nil {
		return nil, translate(err)
	}
	if businessID != "" && stg.BusinessID != businessID {
		return nil, ErrForbidden
	}
	return &stg, nil
}

// ListStages lists a business's stages in creation order, optionally
// filtered by agent.
func (s *Store) ListStages(ctx context.Context, businessID, agentID string) ([]models.Stage, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(opCtx).Where("business_id = ?", businessID).Order("created_at asc")
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}

	var stages []models.Stage
	if err := q.Find(&stages).Error; err != nil {
		return nil, translate(err)
	}
	return stages, nil
}

// UpdateStage applies non-empty fields of req onto an existing stage.
func (s *Store) UpdateStage(ctx context.Context, stageID string, req CreateStageRequest) (*models.Stage, error) {
	stg, err := s.GetStage(ctx, req.BusinessID, stageID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.StageName != "" {
		updates["stage_name"] = req.StageName
	}
	if req.StageDescription != "" {
		updates["stage_description"] = req.StageDescription
	}
	if req.StageType != "" {
		updates["stage_type"] = req.StageType
	}
	templateUpdates := map[string]string{
		"stage_selection_template_id":     req.StageSelectionTemplateID,
		"data_extraction_template_id":     req.DataExtractionTemplateID,
		"response_generation_template_id": req.ResponseGenerationTemplateID,
	}
	for col, id := range templateUpdates {
		if id == "" {
			continue
		}
		if err := s.verifyTemplateOwnership(ctx, id, stg.BusinessID, col); err != nil {
			return nil, err
		}
		updates[col] = id
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Model(&models.Stage{}).
		Where("stage_id = ?", stageID).Updates(updates).Error; err != nil {
		return nil, translate(err)
	}
	return s.GetStage(ctx, stg.BusinessID, stageID)
}

// DeleteStage removes a stage. Callers must not reference deleted stages.
func (s *Store) DeleteStage(ctx context.Context, businessID, stageID string) error {
	if _, err := s.GetStage(ctx, businessID, stageID); err != nil {
		return err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(opCtx).Delete(&models.Stage{}, "stage_id = ?", stageID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTransitionsFrom returns the explicit allowed transitions out of a
// stage. An empty result means all same-business stages are reachable.
func (s *Store) ListTransitionsFrom(ctx context.Context, fromStageID string) ([]models.StageTransition, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var transitions []models.StageTransition
	if err := s.db.WithContext(opCtx).
		Where("from_stage_id = ?", fromStageID).
		Find(&transitions).Error; err != nil {
		return nil, translate(err)
	}
	return transitions, nil
}

// CreateStageTransition records an explicit allowed transition.
func (s *Store) CreateStageTransition(ctx context.Context, businessID, fromStageID, toStageID, condition string) (*models.StageTransition, error) {
	if fromStageID == toStageID {
		return nil, NewValidationError("to_stage_id", "must differ from from_stage_id")
	}
	for field, id := range map[string]string{"from_stage_id": fromStageID, "to_stage_id": toStageID} {
		if _, err := s.GetStage(ctx, businessID, id); err != nil {
			return nil, NewValidationError(field, "stage not found")
		}
	}

	tr := &models.StageTransition{
		ID:          uuid.New().String(),
		BusinessID:  businessID,
		FromStageID: fromStageID,
		ToStageID:   toStageID,
		Condition:   condition,
		CreatedAt:   time.Now().UTC(),
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(tr).Error; err != nil {
		return nil, translate(err)
	}
	return tr, nil
}
