package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// CreateTemplateRequest carries the fields accepted at template creation.
type CreateTemplateRequest struct {
	BusinessID   string
	TemplateName string
	TemplateType string
	Content      string
	SystemPrompt string
}

// InsertTemplate persists a new template row. Variable-usage scanning is the
// template engine's job; it wraps this call in a transaction.
func (s *Store) InsertTemplate(ctx context.Context, req CreateTemplateRequest) (*models.Template, error) {
	if req.BusinessID == "" {
		return nil, NewValidationError("business_id", "required")
	}
	if req.TemplateName == "" {
		return nil, NewValidationError("template_name", "required")
	}
	if !models.ValidTemplateType(req.TemplateType) {
		return nil, NewValidationError("template_type", "invalid")
	}
	if req.Content == "" {
		return nil, NewValidationError("content", "required")
	}

	now := time.Now().UTC()
	tpl := &models.Template{
		ID:           uuid.New().String(),
		BusinessID:   req.BusinessID,
		TemplateName: req.TemplateName,
		TemplateType: req.TemplateType,
		Content:      req.Content,
		SystemPrompt: req.SystemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(tpl).Error; err != nil {
		return nil, translate(err)
	}
	return tpl, nil
}

// UpdateTemplateText applies non-empty fields onto an existing template.
func (s *Store) UpdateTemplateText(ctx context.Context, businessID, templateID string, name, templateType, content, systemPrompt string) (*models.Template, error) {
	tpl, err := s.GetTemplate(ctx, businessID, templateID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if name != "" {
		updates["template_name"] = name
	}
	if templateType != "" {
		if !models.ValidTemplateType(templateType) {
			return nil, NewValidationError("template_type", "invalid")
		}
		updates["template_type"] = templateType
	}
	if content != "" {
		updates["content"] = content
	}
	if systemPrompt != "" {
		updates["system_prompt"] = systemPrompt
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Model(&models.Template{}).
		Where("template_id = ?", templateID).Updates(updates).Error; err != nil {
		return nil, translate(err)
	}
	return s.GetTemplate(ctx, tpl.BusinessID, templateID)
}

// GetTemplate fetches a template scoped to a business.
func (s *Store) GetTemplate(ctx context.Context, businessID, templateID string) (*models.Template, error) {
	tpl, err := s.getTemplateAnyBusiness(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if businessID != "" && tpl.BusinessID != businessID {
		return nil, ErrForbidden
	}
	return tpl, nil
}

func (s *Store) getTemplateAnyBusiness(ctx context.Context, templateID string) (*models.Template, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var tpl models.Template
	if err := s.db.WithContext(opCtx).First(&tpl, "template_id = ?", templateID).Error; err != nil {
		return nil, translate(err)
	}
	return &tpl, nil
}

// ListTemplates lists a business's templates, optionally by type.
func (s *Store) ListTemplates(ctx context.Context, businessID, templateType string) ([]models.Template, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(opCtx).Where("business_id = ?", businessID).Order("created_at asc")
	if templateType != "" {
		q = q.Where("template_type = ?", templateType)
	}

	var templates []models.Template
	if err := q.Find(&templates).Error; err != nil {
		return nil, translate(err)
	}
	return templates, nil
}

// FindTemplateByType returns the business's first template of the given
// type, used for default_ fallbacks. ErrNotFound when none exists.
func (s *Store) FindTemplateByType(ctx context.Context, businessID, templateType string) (*models.Template, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var tpl models.Template
	if err := s.db.WithContext(opCtx).
		Where("business_id = ? AND template_type = ?", businessID, templateType).
		Order("created_at asc").
		First(&tpl).Error; err != nil {
		return nil, translate(err)
	}
	return &tpl, nil
}

// DeleteTemplate removes a template and its usage rows.
func (s *Store) DeleteTemplate(ctx context.Context, businessID, templateID string) error {
	if _, err := s.GetTemplate(ctx, businessID, templateID); err != nil {
		return err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).
		Delete(&models.TemplateVariableUsage{}, "template_id = ?", templateID).Error; err != nil {
		return translate(err)
	}
	res := s.db.WithContext(opCtx).Delete(&models.Template{}, "template_id = ?", templateID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureVariable returns the variable with the given name, stubbing a new
// row with category "unknown" when the name has never been seen.
func (s *Store) EnsureVariable(ctx context.Context, name string) (*models.TemplateVariable, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var v models.TemplateVariable
	err := s.db.WithContext(opCtx).First(&v, "variable_name = ?", name).Error
	if err == nil {
		return &v, nil
	}
	if translate(err) != ErrNotFound {
		return nil, translate(err)
	}

	v = models.TemplateVariable{
		ID:           uuid.New().String(),
		VariableName: name,
		Category:     models.VariableCategoryUnknown,
		IsDynamic:    false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(opCtx).Create(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// ReplaceVariableUsage resets and repopulates the usage rows for a template.
func (s *Store) ReplaceVariableUsage(ctx context.Context, templateID string, variableIDs []string) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).
		Delete(&models.TemplateVariableUsage{}, "template_id = ?", templateID).Error; err != nil {
		return translate(err)
	}
	for _, vid := range variableIDs {
		usage := models.TemplateVariableUsage{TemplateID: templateID, VariableID: vid}
		if err := s.db.WithContext(opCtx).Create(&usage).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}

// ListVariableUsage returns the names of the variables a template references.
func (s *Store) ListVariableUsage(ctx context.Context, templateID string) ([]string, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var names []string
	err := s.db.WithContext(opCtx).
		Model(&models.TemplateVariableUsage{}).
		Joins("JOIN template_variables ON template_variables.variable_id = template_variable_usage.variable_id").
		Where("template_variable_usage.template_id = ?", templateID).
		Pluck("template_variables.variable_name", &names).Error
	if err != nil {
		return nil, translate(err)
	}
	return names, nil
}
