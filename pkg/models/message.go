package models

import "time"

// Message sender types.
const (
	SenderTypeUser      = "user"
	SenderTypeAssistant = "assistant"
	SenderTypeStaff     = "staff"
	SenderTypeAI        = "ai"
)

// ValidSenderType reports whether t is a recognized sender type.
func ValidSenderType(t string) bool {
	switch t {
	case SenderTypeUser, SenderTypeAssistant, SenderTypeStaff, SenderTypeAI:
		return true
	}
	return false
}

// Message is one utterance inside a conversation. CreatedAt is the
// authoritative ordering.
type Message struct {
	ID             string    `gorm:"column:message_id;primaryKey" json:"message_id"`
	ConversationID string    `gorm:"column:conversation_id;index;not null" json:"conversation_id"`
	Content        string    `gorm:"column:message_content;not null" json:"message_content"`
	SenderType     string    `gorm:"column:sender_type;not null" json:"sender_type"`
	CreatedAt      time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// ExtractedData is one structured extraction result, one row per successful
// extraction phase (and one per stage-selection decision).
type ExtractedData struct {
	ID             string    `gorm:"column:extraction_id;primaryKey" json:"extraction_id"`
	ConversationID string    `gorm:"column:conversation_id;index;not null" json:"conversation_id"`
	StageID        string    `gorm:"column:stage_id" json:"stage_id,omitempty"`
	DataType       string    `gorm:"column:data_type;not null" json:"data_type"`
	Data           JSONMap   `gorm:"column:extracted_data" json:"extracted_data"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ExtractedData) TableName() string { return "extracted_data" }
