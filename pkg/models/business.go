// Package models defines the persisted entities shared by the store, the
// orchestrator, and the API layer.
package models

import "time"

// Business is a tenant: a customer organization with its own stages,
// templates, users, and API key.
type Business struct {
	ID                  string    `gorm:"column:business_id;primaryKey" json:"business_id"`
	Name                string    `gorm:"column:business_name;uniqueIndex;not null" json:"business_name"`
	OwnerID             string    `gorm:"column:owner_id;not null" json:"owner_id"`
	InternalAPIKey      string    `gorm:"column:internal_api_key;uniqueIndex;not null" json:"-"`
	BusinessDescription string    `gorm:"column:business_description" json:"business_description,omitempty"`
	Address             string    `gorm:"column:address" json:"address,omitempty"`
	PhoneNumber         string    `gorm:"column:phone_number" json:"phone_number,omitempty"`
	Website             string    `gorm:"column:website" json:"website,omitempty"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName implements gorm schema.Tabler.
func (Business) TableName() string { return "businesses" }

// Agent is an optional per-business sub-scope. A stage may bind to one agent
// and messages may be routed per agent.
type Agent struct {
	ID         string    `gorm:"column:agent_id;primaryKey" json:"agent_id"`
	BusinessID string    `gorm:"column:business_id;index;not null" json:"business_id"`
	AgentName  string    `gorm:"column:agent_name;not null" json:"agent_name"`
	AgentType  string    `gorm:"column:agent_type" json:"agent_type,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Agent) TableName() string { return "agents" }

// Messaging platforms with webhook adapters.
const (
	PlatformMessenger = "messenger"
	PlatformWhatsApp  = "whatsapp"
	PlatformWeb       = "web"
)

// ValidPlatform reports whether p is a recognized platform.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformMessenger, PlatformWhatsApp, PlatformWeb:
		return true
	}
	return false
}

// PlatformBinding maps a platform-side account (a Messenger page, a
// WhatsApp phone number) to the business that owns it. Webhook adapters
// resolve the tenant through this table.
type PlatformBinding struct {
	ID                string    `gorm:"column:binding_id;primaryKey" json:"binding_id"`
	BusinessID        string    `gorm:"column:business_id;index;not null" json:"business_id"`
	Platform          string    `gorm:"column:platform;uniqueIndex:uniq_platform_account;not null" json:"platform"`
	PlatformAccountID string    `gorm:"column:platform_account_id;uniqueIndex:uniq_platform_account;not null" json:"platform_account_id"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
}

func (PlatformBinding) TableName() string { return "platform_bindings" }
