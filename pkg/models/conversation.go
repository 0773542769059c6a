package models

import "time"

// Conversation statuses.
const (
	ConversationStatusActive    = "active"
	ConversationStatusPaused    = "paused"
	ConversationStatusCompleted = "completed"
	ConversationStatusError     = "error"
)

// Conversation is one ongoing exchange between a user and a business.
// CurrentStageID is empty until the stage machine bootstraps it.
type Conversation struct {
	ID             string    `gorm:"column:conversation_id;primaryKey" json:"conversation_id"`
	BusinessID     string    `gorm:"column:business_id;index;not null" json:"business_id"`
	UserID         string    `gorm:"column:user_id;index;not null" json:"user_id"`
	AgentID        string    `gorm:"column:agent_id" json:"agent_id,omitempty"`
	CurrentStageID string    `gorm:"column:current_stage_id" json:"current_stage_id,omitempty"`
	SessionID      string    `gorm:"column:session_id;index" json:"session_id,omitempty"`
	StartTime      time.Time `gorm:"column:start_time" json:"start_time"`
	LastUpdated    time.Time `gorm:"column:last_updated" json:"last_updated"`
	Status         string    `gorm:"column:status;not null;default:active" json:"status"`
	Summary        JSONMap   `gorm:"column:conversation_summary" json:"conversation_summary,omitempty"`
	LLMCallID      string    `gorm:"column:llm_call_id" json:"llm_call_id,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

// Terminal reports whether the orchestrator should stop generating replies.
func (c *Conversation) Terminal() bool {
	return c.Status == ConversationStatusCompleted || c.Status == ConversationStatusError
}
