package models

import "time"

// AI control scopes, narrowest first. Pause resolution checks conversation,
// then user, then business; the first unexpired row wins.
const (
	AIControlScopeConversation = "conversation"
	AIControlScopeUser         = "user"
	AIControlScopeBusiness     = "business"
)

// AIControlSetting suppresses AI replies while a human operator takes over.
// ExpiresAt nil means the pause holds until explicitly cleared.
type AIControlSetting struct {
	ID             string     `gorm:"column:setting_id;primaryKey" json:"setting_id"`
	BusinessID     string     `gorm:"column:business_id;index;not null" json:"business_id"`
	Scope          string     `gorm:"column:scope;not null" json:"scope"`
	ConversationID string     `gorm:"column:conversation_id;index" json:"conversation_id,omitempty"`
	UserID         string     `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Paused         bool       `gorm:"column:paused;not null" json:"paused"`
	ExpiresAt      *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (AIControlSetting) TableName() string { return "ai_control_settings" }

// Active reports whether this setting currently suppresses AI replies.
func (s *AIControlSetting) Active(now time.Time) bool {
	if !s.Paused {
		return false
	}
	if s.ExpiresAt != nil && !s.ExpiresAt.After(now) {
		return false
	}
	return true
}
