package models

import "time"

// StageTypeFirstInteraction marks the stage a new conversation bootstraps
// into. Stage types are otherwise free-form tags.
const StageTypeFirstInteraction = "first_interaction"

// Stage is a named state in a business's conversation flow. It bundles the
// three template references the pipeline renders for selection, extraction,
// and generation.
type Stage struct {
	ID               string `gorm:"column:stage_id;primaryKey" json:"stage_id"`
	BusinessID       string `gorm:"column:business_id;index;not null" json:"business_id"`
	AgentID          string `gorm:"column:agent_id;index" json:"agent_id,omitempty"`
	StageName        string `gorm:"column:stage_name;not null" json:"stage_name"`
	StageDescription string `gorm:"column:stage_description" json:"stage_description,omitempty"`
	StageType        string `gorm:"column:stage_type;index" json:"stage_type,omitempty"`

	StageSelectionTemplateID     string `gorm:"column:stage_selection_template_id;not null" json:"stage_selection_template_id"`
	DataExtractionTemplateID     string `gorm:"column:data_extraction_template_id;not null" json:"data_extraction_template_id"`
	ResponseGenerationTemplateID string `gorm:"column:response_generation_template_id;not null" json:"response_generation_template_id"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Stage) TableName() string { return "stages" }

// StageTransition is an optional explicit allowed transition. When no rows
// exist for a from-stage, any stage of the same business is reachable.
type StageTransition struct {
	ID          string    `gorm:"column:transition_id;primaryKey" json:"transition_id"`
	BusinessID  string    `gorm:"column:business_id;index;not null" json:"business_id"`
	FromStageID string    `gorm:"column:from_stage_id;index;not null" json:"from_stage_id"`
	ToStageID   string    `gorm:"column:to_stage_id;not null" json:"to_stage_id"`
	Condition   string    `gorm:"column:condition" json:"condition,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (StageTransition) TableName() string { return "stage_transitions" }
