package api

// Request bodies for the tenant-facing API. Binding tags drive gin's JSON
// validation; cross-field rules live in the store layer.

type createBusinessRequest struct {
	OwnerID             string `json:"owner_id" binding:"required"`
	BusinessName        string `json:"business_name" binding:"required"`
	BusinessDescription string `json:"business_description"`
	Address             string `json:"address"`
	PhoneNumber         string `json:"phone_number"`
	Website             string `json:"website"`
}

type saveConfigRequest struct {
	UserID         string `json:"userId" binding:"required"`
	BusinessID     string `json:"businessId" binding:"required"`
	BusinessAPIKey string `json:"businessApiKey" binding:"required"`
}

type stageRequest struct {
	BusinessID                   string `json:"business_id"`
	AgentID                      string `json:"agent_id"`
	StageName                    string `json:"stage_name"`
	StageDescription             string `json:"stage_description"`
	StageType                    string `json:"stage_type"`
	StageSelectionTemplateID     string `json:"stage_selection_template_id"`
	DataExtractionTemplateID     string `json:"data_extraction_template_id"`
	ResponseGenerationTemplateID string `json:"response_generation_template_id"`
}

type stageTransitionRequest struct {
	BusinessID  string `json:"business_id"`
	FromStageID string `json:"from_stage_id" binding:"required"`
	ToStageID   string `json:"to_stage_id" binding:"required"`
	Condition   string `json:"condition"`
}

type templateRequest struct {
	BusinessID   string `json:"business_id"`
	TemplateName string `json:"template_name"`
	TemplateType string `json:"template_type"`
	Content      string `json:"content"`
	SystemPrompt string `json:"system_prompt"`
}

type messageRequest struct {
	BusinessID     string `json:"business_id"`
	UserID         string `json:"user_id"`
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
	SenderType     string `json:"sender_type"`
	SessionID      string `json:"session_id"`
}

type platformBindingRequest struct {
	BusinessID        string `json:"business_id"`
	Platform          string `json:"platform" binding:"required"`
	PlatformAccountID string `json:"platform_account_id" binding:"required"`
}

type aiControlRequest struct {
	BusinessID     string `json:"business_id"`
	Scope          string `json:"scope" binding:"required"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	// ExpiresInSeconds bounds a pause; zero means until resumed.
	ExpiresInSeconds int `json:"expires_in_seconds"`
}
