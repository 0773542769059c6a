package models

import "time"

// LLM call types, one per pipeline phase.
const (
	LLMCallTypeSelection  = "selection"
	LLMCallTypeExtraction = "extraction"
	LLMCallTypeGeneration = "generation"
)

// LLMCall is the audit record of one call to the language model. Every
// invocation attempt gets exactly one row, failures included.
type LLMCall struct {
	ID           string    `gorm:"column:call_id;primaryKey" json:"call_id"`
	BusinessID   string    `gorm:"column:business_id;index;not null" json:"business_id"`
	CallType     string    `gorm:"column:call_type;not null" json:"call_type"`
	SystemPrompt string    `gorm:"column:system_prompt" json:"system_prompt,omitempty"`
	InputText    string    `gorm:"column:input_text" json:"input_text"`
	Response     string    `gorm:"column:response" json:"response"`
	ErrorClass   string    `gorm:"column:error_class" json:"error_class,omitempty"`
	Timestamp    time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

func (LLMCall) TableName() string { return "llm_calls" }
