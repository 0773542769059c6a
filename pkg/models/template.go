package models

import "time"

// Template types. The default_ variants mark a business-wide fallback used
// when a stage has no template of its own.
const (
	TemplateTypeStageSelection     = "stage_selection"
	TemplateTypeDataExtraction     = "data_extraction"
	TemplateTypeResponseGeneration = "response_generation"

	TemplateTypeDefaultStageSelection     = "default_stage_selection"
	TemplateTypeDefaultDataExtraction     = "default_data_extraction"
	TemplateTypeDefaultResponseGeneration = "default_response_generation"
)

// ValidTemplateType reports whether t is one of the recognized template types.
func ValidTemplateType(t string) bool {
	switch t {
	case TemplateTypeStageSelection, TemplateTypeDataExtraction, TemplateTypeResponseGeneration,
		TemplateTypeDefaultStageSelection, TemplateTypeDefaultDataExtraction, TemplateTypeDefaultResponseGeneration:
		return true
	}
	return false
}

// Template is text-with-placeholders used to build an LLM prompt.
// Placeholders use {name} or {{name}}; {{name}} is the preferred form.
type Template struct {
	ID           string    `gorm:"column:template_id;primaryKey" json:"template_id"`
	BusinessID   string    `gorm:"column:business_id;index;not null" json:"business_id"`
	TemplateName string    `gorm:"column:template_name;not null" json:"template_name"`
	TemplateType string    `gorm:"column:template_type;index;not null" json:"template_type"`
	Content      string    `gorm:"column:content;not null" json:"content"`
	SystemPrompt string    `gorm:"column:system_prompt" json:"system_prompt,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Template) TableName() string { return "templates" }

// Template variable categories.
const (
	VariableCategoryStage        = "stage"
	VariableCategoryUser         = "user"
	VariableCategoryConversation = "conversation"
	VariableCategoryBusiness     = "business"
	VariableCategorySystem       = "system"
	VariableCategoryUnknown      = "unknown"
)

// TemplateVariable is a named placeholder. Built-ins are seeded at migration
// time; names first seen inside a template are stubbed with category
// "unknown".
type TemplateVariable struct {
	ID           string    `gorm:"column:variable_id;primaryKey" json:"variable_id"`
	VariableName string    `gorm:"column:variable_name;uniqueIndex;not null" json:"variable_name"`
	Description  string    `gorm:"column:description" json:"description,omitempty"`
	DefaultValue string    `gorm:"column:default_value" json:"default_value,omitempty"`
	Example      string    `gorm:"column:example" json:"example,omitempty"`
	Category     string    `gorm:"column:category;not null;default:unknown" json:"category"`
	IsDynamic    bool      `gorm:"column:is_dynamic;not null;default:false" json:"is_dynamic"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (TemplateVariable) TableName() string { return "template_variables" }

// TemplateVariableUsage links a template to a variable referenced in its
// content or system prompt. Rebuilt whenever the template text changes.
type TemplateVariableUsage struct {
	TemplateID string `gorm:"column:template_id;primaryKey" json:"template_id"`
	VariableID string `gorm:"column:variable_id;primaryKey" json:"variable_id"`
}

func (TemplateVariableUsage) TableName() string { return "template_variable_usage" }
