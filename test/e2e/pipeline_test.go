package e2e

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/webhook"
)

// TestConversationPipelineOverHTTP provisions a tenant, configures its flow,
// and runs a message through the full stack: HTTP in, three LLM phases,
// transcript and extracted data readable back out.
func TestConversationPipelineOverHTTP(t *testing.T) {
	e := newEnv(t)
	_, apiKey := e.provisionBusiness("Acme Dental")

	e.configureStage(apiKey, "greeting", models.StageTypeFirstInteraction,
		"Hello {{user_name}}! Welcome to {{business_name}}.")
	bookingID := e.configureStage(apiKey, "booking", "",
		"Booking {{appointment_date}} for {{user_name}}.")

	e.llm.AddText("booking, confidence: 0.9")
	e.llm.AddText(`{"appointment_date": "2026-09-01"}`)
	e.llm.AddText("You are booked for September 1st!")

	resp := e.post("/message", apiKey, map[string]string{
		"user_id": "visitor-1",
		"message": "I'd like an appointment next week",
	}, http.StatusOK)
	assert.Equal(t, "You are booked for September 1st!", resp["response"])
	assert.Equal(t, bookingID, resp["stage_id"])
	conversationID := resp["conversation_id"].(string)
	require.NotEmpty(t, conversationID)

	// The extracted value was available to the generation prompt.
	calls := e.llm.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[2].UserPrompt, "Booking 2026-09-01")

	detail := e.get("/conversation/"+conversationID, apiKey, http.StatusOK)
	messages := detail["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "I'd like an appointment next week",
		messages[0].(map[string]any)["message_content"])
	assert.Equal(t, "You are booked for September 1st!",
		messages[1].(map[string]any)["message_content"])
	assert.NotEmpty(t, detail["extracted_data"])

	list := e.get("/conversations/visitor-1", apiKey, http.StatusOK)
	assert.Len(t, list["conversations"], 1)
}

// TestWebhookDeliveryRoundTrip receives a signed Messenger webhook and
// verifies the generated reply goes back out through the Send API.
func TestWebhookDeliveryRoundTrip(t *testing.T) {
	e := newEnv(t)
	businessID, apiKey := e.provisionBusiness("Acme Dental")

	e.configureStage(apiKey, "greeting", models.StageTypeFirstInteraction,
		"Hi! How can we help?")
	e.post("/platform-bindings", apiKey, map[string]string{
		"platform":            models.PlatformMessenger,
		"platform_account_id": "page-77",
	}, http.StatusCreated)

	e.llm.AddText("greeting")
	e.llm.AddText(`{}`)
	e.llm.AddText("Hi! We have openings tomorrow morning.")

	body := []byte(`{"object":"page","entry":[{"id":"page-77","messaging":[` +
		`{"sender":{"id":"psid-42"},"recipient":{"id":"page-77"},` +
		`"message":{"text":"do you have openings?"}}]}]}`)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		e.base+"/webhooks/messenger", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", webhook.Sign(body, messengerSecret))

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sends := e.graph.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "Hi! We have openings tomorrow morning.",
		sends[0]["message"].(map[string]any)["text"])
	assert.Equal(t, "psid-42",
		sends[0]["recipient"].(map[string]any)["id"])

	// The platform user now has a durable conversation under the tenant,
	// keyed by the stable identity derived from the Messenger sender ID.
	platformUser := uuid.NewSHA1(uuid.NameSpaceOID, []byte(models.PlatformMessenger+":psid-42")).String()
	convs, err := e.store.ListConversations(context.Background(), businessID, platformUser)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, businessID, convs[0].BusinessID)
}

// TestPauseSuppressesPipeline pauses AI for the business, observes that
// inbound messages persist without a reply, then resumes.
func TestPauseSuppressesPipeline(t *testing.T) {
	e := newEnv(t)
	_, apiKey := e.provisionBusiness("Acme Dental")
	e.configureStage(apiKey, "greeting", models.StageTypeFirstInteraction,
		"Hi! How can we help?")

	e.post("/ai-control/pause", apiKey, map[string]string{
		"scope": models.AIControlScopeBusiness,
	}, http.StatusOK)

	resp := e.post("/message", apiKey, map[string]string{
		"user_id": "visitor-1",
		"message": "anyone there?",
	}, http.StatusOK)
	assert.Equal(t, true, resp["paused"])
	assert.Empty(t, resp["response"])
	assert.Empty(t, e.llm.Calls(), "paused conversations must not reach the LLM")

	// The inbound message is still part of the transcript.
	detail := e.get("/conversation/"+resp["conversation_id"].(string), apiKey, http.StatusOK)
	assert.Len(t, detail["messages"], 1)

	e.post("/ai-control/resume", apiKey, map[string]string{
		"scope": models.AIControlScopeBusiness,
	}, http.StatusOK)

	e.llm.AddText("greeting")
	e.llm.AddText(`{}`)
	e.llm.AddText("Hi! Sorry for the wait.")

	resp = e.post("/message", apiKey, map[string]string{
		"user_id": "visitor-1",
		"message": "hello again",
	}, http.StatusOK)
	assert.Equal(t, "Hi! Sorry for the wait.", resp["response"])
}
