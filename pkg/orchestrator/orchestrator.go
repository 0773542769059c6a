// Package orchestrator drives an inbound message through the three-phase
// pipeline: stage selection, data extraction, response generation.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stagehand-io/stagehand/pkg/llm"
	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/stage"
	"github.com/stagehand-io/stagehand/pkg/store"
	"github.com/stagehand-io/stagehand/pkg/template"
)

// DefaultFallbackReply is returned when response generation fails and the
// business has no fallback of its own.
const DefaultFallbackReply = "I'm having trouble answering right now. Please try again."

const historyWindow = 10

// InboundMessage is the normalized input, whatever platform it came from.
type InboundMessage struct {
	BusinessID     string
	UserID         string
	SessionID      string
	Text           string
	AgentID        string
	SenderType     string
	ConversationID string
}

// Outcome is the pipeline result. Suppressed means the message was
// persisted but no reply was generated (AI paused or conversation closed).
type Outcome struct {
	Reply          string `json:"response"`
	ConversationID string `json:"conversation_id"`
	StageID        string `json:"stage_id,omitempty"`
	Suppressed     bool   `json:"paused,omitempty"`
}

// Config tunes the orchestrator.
type Config struct {
	FallbackReply    string
	LeaseTimeout     time.Duration
	BreakerThreshold int
	BreakerWindow    time.Duration
}

// Orchestrator ties the store, the stage machine, the template engine, and
// the LLM service together.
type Orchestrator struct {
	store    *store.Store
	engine   *template.Engine
	llm      *llm.Service
	machine  *stage.Machine
	leases   *LeaseManager
	breaker  *Breaker
	fallback string
}

// New creates an orchestrator.
func New(st *store.Store, engine *template.Engine, llmSvc *llm.Service, machine *stage.Machine, cfg Config) *Orchestrator {
	fallback := cfg.FallbackReply
	if fallback == "" {
		fallback = DefaultFallbackReply
	}
	return &Orchestrator{
		store:    st,
		engine:   engine,
		llm:      llmSvc,
		machine:  machine,
		leases:   NewLeaseManager(cfg.LeaseTimeout),
		breaker:  NewBreaker(cfg.BreakerThreshold, cfg.BreakerWindow),
		fallback: fallback,
	}
}

// pipeline is the per-message working state shared by the phases.
type pipeline struct {
	business     *models.Business
	user         *models.User
	conversation *models.Conversation
	stages       []models.Stage
	current      *models.Stage
	history      []models.Message
	text         string
	agentID      string
	extracted    models.JSONMap
	lastCallID   string
}

// Handle runs one inbound message through phases 0-3. Messages for the same
// conversation are serialized on a write lease; different conversations
// proceed in parallel.
func (o *Orchestrator) Handle(ctx context.Context, msg InboundMessage) (*Outcome, error) {
	if msg.Text == "" {
		return nil, store.NewValidationError("message", "required")
	}
	if msg.BusinessID == "" {
		return nil, store.NewValidationError("business_id", "required")
	}

	business, err := o.store.GetBusiness(ctx, msg.BusinessID)
	if err != nil {
		return nil, err
	}

	user, err := o.store.EnsureUser(ctx, msg.UserID)
	if err != nil {
		return nil, err
	}

	conv, err := o.resolveConversation(ctx, msg, user.ID)
	if err != nil {
		return nil, err
	}

	release, err := o.leases.Acquire(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lease; a concurrent message may have moved the
	// stage or closed the conversation.
	conv, err = o.store.GetConversation(ctx, msg.BusinessID, conv.ID)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		business:     business,
		user:         user,
		conversation: conv,
		text:         msg.Text,
		agentID:      msg.AgentID,
	}

	suppressed, err := o.prepare(ctx, p)
	if err != nil {
		return nil, err
	}
	if suppressed {
		return &Outcome{ConversationID: conv.ID, StageID: conv.CurrentStageID, Suppressed: true}, nil
	}

	if o.breaker.Tripped(business.ID, time.Now()) {
		return o.finishWithFallback(ctx, p, "circuit breaker open")
	}

	o.selectStage(ctx, p)
	o.extractData(ctx, p)
	return o.generateReply(ctx, p)
}

func (o *Orchestrator) resolveConversation(ctx context.Context, msg InboundMessage, userID string) (*models.Conversation, error) {
	if msg.ConversationID != "" {
		return o.store.GetConversation(ctx, msg.BusinessID, msg.ConversationID)
	}
	return o.store.OpenOrResumeConversation(ctx, msg.BusinessID, userID, msg.AgentID, msg.SessionID)
}

// prepare is phase 0: persist the inbound message and load the stage
// context. Returns true when the reply must be suppressed.
func (o *Orchestrator) prepare(ctx context.Context, p *pipeline) (bool, error) {
	paused, err := o.store.AIPaused(ctx, p.business.ID, p.conversation.ID, p.user.ID)
	if err != nil {
		return false, err
	}

	senderType := models.SenderTypeUser
	if _, err := o.store.AppendMessage(ctx, p.conversation.ID, senderType, p.text); err != nil {
		return false, err
	}

	if paused || p.conversation.Terminal() {
		return true, nil
	}

	p.stages, err = o.store.ListStages(ctx, p.business.ID, "")
	if err != nil {
		return false, err
	}
	if len(p.stages) == 0 {
		return false, store.ErrNoStages
	}

	p.current, err = o.machine.Current(ctx, p.conversation)
	if err != nil {
		return false, err
	}

	p.history, err = o.store.LastMessages(ctx, p.conversation.ID, historyWindow)
	if err != nil {
		return false, err
	}
	return false, nil
}

// selectStage is phase 1. A failure keeps the current stage; the pipeline
// degrades instead of surfacing the error.
func (o *Orchestrator) selectStage(ctx context.Context, p *pipeline) {
	tpl, err := o.resolveTemplate(ctx, p.business.ID,
		p.current.StageSelectionTemplateID,
		models.TemplateTypeDefaultStageSelection,
		globalStageSelectionTemplate)
	if err != nil {
		o.logPhaseFailure(ctx, p, "selection", err)
		return
	}

	content, systemPrompt := o.engine.Render(tpl, o.renderContext(p))
	response, _, err := o.llm.Complete(ctx, p.business.ID, models.LLMCallTypeSelection, systemPrompt, content)
	if err != nil {
		o.logPhaseFailure(ctx, p, "selection", err)
		return
	}

	selected, confidence := parseStageSelection(response, p.stages)
	decision := models.JSONMap{"raw": response}
	if confidence != nil {
		decision["confidence"] = *confidence
	}

	if selected == nil {
		decision["selected_stage"] = p.current.StageName
		decision["miss"] = true
		o.audit(ctx, p, models.AuditActionStageSelectionMiss, models.JSONMap{
			"conversation_id": p.conversation.ID,
			"response":        response,
		})
	} else if selected.ID != p.current.ID {
		if err := o.machine.Transition(ctx, p.conversation, selected); err != nil {
			o.logPhaseFailure(ctx, p, "selection", err)
		} else {
			p.current = selected
		}
		decision["selected_stage"] = selected.StageName
	} else {
		decision["selected_stage"] = p.current.StageName
	}

	if _, err := o.store.RecordExtractedData(ctx, p.conversation.ID, p.current.ID, "stage_selection", decision); err != nil {
		slog.Error("Failed to record stage selection", "conversation_id", p.conversation.ID, "error", err)
	}
}

// extractData is phase 2. A failure stores an empty extraction and the
// pipeline proceeds with no extracted fields.
func (o *Orchestrator) extractData(ctx context.Context, p *pipeline) {
	p.extracted = models.JSONMap{}

	tpl, err := o.resolveTemplate(ctx, p.business.ID,
		p.current.DataExtractionTemplateID,
		models.TemplateTypeDefaultDataExtraction,
		globalDataExtractionTemplate)
	if err != nil {
		o.logPhaseFailure(ctx, p, "extraction", err)
		return
	}

	rc := o.renderContext(p)
	rc.Fields = o.extractionFields(ctx, p)
	content, systemPrompt := o.engine.Render(tpl, rc)

	response, _, err := o.llm.Complete(ctx, p.business.ID, models.LLMCallTypeExtraction, systemPrompt, content)
	if err != nil {
		o.logPhaseFailure(ctx, p, "extraction", err)
	} else {
		p.extracted = parseExtraction(response)
	}

	if _, err := o.store.RecordExtractedData(ctx, p.conversation.ID, p.current.ID, "data_extraction", p.extracted); err != nil {
		slog.Error("Failed to record extraction", "conversation_id", p.conversation.ID, "error", err)
	}
}

// generateReply is phase 3. A failure returns the fallback reply and feeds
// the circuit breaker; the conversation status is left unchanged.
func (o *Orchestrator) generateReply(ctx context.Context, p *pipeline) (*Outcome, error) {
	tpl, err := o.resolveTemplate(ctx, p.business.ID,
		p.current.ResponseGenerationTemplateID,
		models.TemplateTypeDefaultResponseGeneration,
		globalResponseGenerationTemplate)
	if err != nil {
		o.logPhaseFailure(ctx, p, "generation", err)
		o.breaker.RecordFailure(p.business.ID, time.Now())
		return o.finishWithFallback(ctx, p, err.Error())
	}

	rc := o.renderContext(p)
	rc.Extra = stringifyExtracted(p.extracted)
	content, systemPrompt := o.engine.Render(tpl, rc)

	reply, callID, err := o.llm.Complete(ctx, p.business.ID, models.LLMCallTypeGeneration, systemPrompt, content)
	if err != nil {
		o.logPhaseFailure(ctx, p, "generation", err)
		o.breaker.RecordFailure(p.business.ID, time.Now())
		return o.finishWithFallback(ctx, p, err.Error())
	}

	o.breaker.RecordSuccess(p.business.ID)
	p.lastCallID = callID

	if _, err := o.store.AppendMessage(ctx, p.conversation.ID, models.SenderTypeAssistant, reply); err != nil {
		return nil, err
	}
	if err := o.store.TouchConversation(ctx, p.conversation.ID, callID); err != nil {
		return nil, err
	}

	return &Outcome{
		Reply:          reply,
		ConversationID: p.conversation.ID,
		StageID:        p.current.ID,
	}, nil
}

// finishWithFallback persists the fallback as the assistant reply so the
// transcript matches what the user saw.
func (o *Orchestrator) finishWithFallback(ctx context.Context, p *pipeline, reason string) (*Outcome, error) {
	if _, err := o.store.AppendMessage(ctx, p.conversation.ID, models.SenderTypeAssistant, o.fallback); err != nil {
		return nil, err
	}
	if err := o.store.TouchConversation(ctx, p.conversation.ID, ""); err != nil {
		return nil, err
	}
	slog.Warn("Responding with fallback reply",
		"business_id", p.business.ID,
		"conversation_id", p.conversation.ID,
		"reason", reason)

	stageID := ""
	if p.current != nil {
		stageID = p.current.ID
	}
	return &Outcome{
		Reply:          o.fallback,
		ConversationID: p.conversation.ID,
		StageID:        stageID,
	}, nil
}

// resolveTemplate loads the stage's template, falling back to the
// business's default_ template of the matching type, then to the global
// built-in.
func (o *Orchestrator) resolveTemplate(ctx context.Context, businessID, templateID, defaultType string, global *models.Template) (*models.Template, error) {
	if templateID != "" {
		tpl, err := o.store.GetTemplate(ctx, businessID, templateID)
		if err == nil {
			return tpl, nil
		}
		if err != store.ErrNotFound {
			return nil, err
		}
	}
	tpl, err := o.store.FindTemplateByType(ctx, businessID, defaultType)
	if err == nil {
		return tpl, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}
	return global, nil
}

// extractionFields derives the field names an extraction prompt asks for:
// the generation template's placeholders that no provider serves. The
// template author defines them; the engine does not invent them.
func (o *Orchestrator) extractionFields(ctx context.Context, p *pipeline) []string {
	tpl, err := o.resolveTemplate(ctx, p.business.ID,
		p.current.ResponseGenerationTemplateID,
		models.TemplateTypeDefaultResponseGeneration,
		globalResponseGenerationTemplate)
	if err != nil {
		return nil
	}
	var fields []string
	for _, name := range template.ScanVariables(tpl.Content, tpl.SystemPrompt) {
		if _, ok := o.engine.Registry().Lookup(name); !ok {
			fields = append(fields, name)
		}
	}
	return fields
}

func (o *Orchestrator) renderContext(p *pipeline) *template.RenderContext {
	return &template.RenderContext{
		Business:     p.business,
		User:         p.user,
		Conversation: p.conversation,
		CurrentStage: p.current,
		Stages:       p.stages,
		Messages:     p.history,
		UserMessage:  p.text,
		AgentType:    p.agentID,
		Store:        o.store,
	}
}

func (o *Orchestrator) audit(ctx context.Context, p *pipeline, action string, data models.JSONMap) {
	if err := o.store.WriteAudit(ctx, p.business.ID, p.user.ID, action, data); err != nil {
		slog.Error("Failed to write audit entry", "business_id", p.business.ID, "action", action, "error", err)
	}
}

func (o *Orchestrator) logPhaseFailure(ctx context.Context, p *pipeline, phase string, err error) {
	slog.Warn("Pipeline phase failed",
		"business_id", p.business.ID,
		"conversation_id", p.conversation.ID,
		"phase", phase,
		"error", err)
	o.audit(ctx, p, models.AuditActionPhaseFailure, models.JSONMap{
		"conversation_id": p.conversation.ID,
		"phase":           phase,
		"error":           err.Error(),
	})
}

func stringifyExtracted(data models.JSONMap) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

// Global built-in templates, the last resort when a stage references a
// missing template and the business has no default of its own.
var (
	globalStageSelectionTemplate = &models.Template{
		ID:           "global_stage_selection",
		TemplateName: "global stage selection",
		TemplateType: models.TemplateTypeStageSelection,
		SystemPrompt: "You route conversations between stages. Answer with the stage name only, optionally followed by \", confidence: <0..1>\".",
		Content:      "Stages:\n{{available_stages}}\n\nRecent conversation:\n{{summary_of_last_conversations}}\n\nUser message: {{user_message}}\n\nWhich stage should handle this message?",
	}
	globalDataExtractionTemplate = &models.Template{
		ID:           "global_data_extraction",
		TemplateName: "global data extraction",
		TemplateType: models.TemplateTypeDataExtraction,
		SystemPrompt: "You extract structured data from user messages. Answer with a single JSON object.",
		Content:      "Fields to extract: {{fields}}\n\nUser message: {{user_message}}",
	}
	globalResponseGenerationTemplate = &models.Template{
		ID:           "global_response_generation",
		TemplateName: "global response generation",
		TemplateType: models.TemplateTypeResponseGeneration,
		SystemPrompt: "You are the assistant for {{business_name}}. Be concise and helpful.",
		Content:      "Current stage: {{current_stage}}\n\nRecent conversation:\n{{conversation_history}}\n\nUser message: {{user_message}}",
	}
)
