package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stagehand-io/stagehand/pkg/models"
)

const historyWindow = 10

var errNoContext = errors.New("value not available in render context")

// registerBuiltins seeds the registry with the contract-level providers.
func registerBuiltins(r *Registry) {
	r.Register("stage_list", stageList)
	r.Register("available_stages", availableStages)
	r.Register("current_stage", currentStage)
	r.Register("conversation_history", conversationHistory)
	r.Register("summary_of_last_conversations", summaryOfLastConversations)
	r.Register("last_10_messages", lastNMessages(10))
	r.Register("user_message", userMessage)
	r.Register("message_content", userMessage)
	r.Register("user_messages", userMessages)
	r.Register("fields", fields)
	r.Register("user_name", userName)
	r.Register("business_name", businessName)
	r.Register("business_info", businessInfo)
	r.Register("agent_type", agentType)
	r.Register("current_time", currentTime)
	r.Register("current_date", currentDate)
}

func stageList(rc *RenderContext) (string, error) {
	names := make([]string, len(rc.Stages))
	for i, st := range rc.Stages {
		names[i] = st.StageName
	}
	return "[" + strings.Join(names, ", ") + "]", nil
}

func availableStages(rc *RenderContext) (string, error) {
	lines := make([]string, len(rc.Stages))
	for i, st := range rc.Stages {
		lines[i] = st.StageName + ": " + st.StageDescription
	}
	return strings.Join(lines, "\n"), nil
}

func currentStage(rc *RenderContext) (string, error) {
	if rc.CurrentStage == nil {
		return "", errNoContext
	}
	return rc.CurrentStage.StageName, nil
}

func conversationHistory(rc *RenderContext) (string, error) {
	return transcript(rc.Messages), nil
}

// summaryOfLastConversations falls back to a transcript of the recent
// window; no summarizer is wired in the core.
func summaryOfLastConversations(rc *RenderContext) (string, error) {
	msgs := rc.Messages
	if len(msgs) > historyWindow {
		msgs = msgs[len(msgs)-historyWindow:]
	}
	return transcript(msgs), nil
}

func lastNMessages(n int) Provider {
	return func(rc *RenderContext) (string, error) {
		msgs := rc.Messages
		if len(msgs) > n {
			msgs = msgs[len(msgs)-n:]
		}
		return transcript(msgs), nil
	}
}

func userMessage(rc *RenderContext) (string, error) {
	return rc.UserMessage, nil
}

func userMessages(rc *RenderContext) (string, error) {
	var parts []string
	for _, m := range rc.Messages {
		if m.SenderType == models.SenderTypeUser {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func fields(rc *RenderContext) (string, error) {
	if len(rc.Fields) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(rc.Fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func userName(rc *RenderContext) (string, error) {
	return rc.User.FullName(), nil
}

func businessName(rc *RenderContext) (string, error) {
	if rc.Business == nil {
		return "", errNoContext
	}
	return rc.Business.Name, nil
}

func businessInfo(rc *RenderContext) (string, error) {
	if rc.Business == nil {
		return "", errNoContext
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s", rc.Business.Name)
	if rc.Business.BusinessDescription != "" {
		fmt.Fprintf(&b, "\nDescription: %s", rc.Business.BusinessDescription)
	}
	if rc.Business.Address != "" {
		fmt.Fprintf(&b, "\nAddress: %s", rc.Business.Address)
	}
	if rc.Business.PhoneNumber != "" {
		fmt.Fprintf(&b, "\nPhone: %s", rc.Business.PhoneNumber)
	}
	if rc.Business.Website != "" {
		fmt.Fprintf(&b, "\nWebsite: %s", rc.Business.Website)
	}
	return b.String(), nil
}

func agentType(rc *RenderContext) (string, error) {
	return rc.AgentType, nil
}

func currentTime(rc *RenderContext) (string, error) {
	return rc.now().UTC().Format("15:04:05"), nil
}

func currentDate(rc *RenderContext) (string, error) {
	return rc.now().UTC().Format("2006-01-02"), nil
}

func transcript(msgs []models.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, speakerLabel(m.SenderType)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func speakerLabel(senderType string) string {
	switch senderType {
	case models.SenderTypeUser:
		return "User"
	case models.SenderTypeAssistant, models.SenderTypeAI:
		return "Assistant"
	case models.SenderTypeStaff:
		return "Staff"
	default:
		return "User"
	}
}
