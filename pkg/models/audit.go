package models

import "time"

// Audit action types written by the core.
const (
	AuditActionStageTransition    = "stage_transition"
	AuditActionStageSelectionMiss = "stage_selection_miss"
	AuditActionPhaseFailure       = "phase_failure"
	AuditActionAIControl          = "ai_control"
)

// AuditLog is a write-only audit trail entry.
type AuditLog struct {
	ID         string    `gorm:"column:log_id;primaryKey" json:"log_id"`
	BusinessID string    `gorm:"column:business_id;index;not null" json:"business_id"`
	UserID     string    `gorm:"column:user_id" json:"user_id,omitempty"`
	ActionType string    `gorm:"column:action_type;not null" json:"action_type"`
	ActionData JSONMap   `gorm:"column:action_data" json:"action_data,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
