package webhook

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/orchestrator"
	"github.com/stagehand-io/stagehand/pkg/store"
)

func TestValidSignature(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	secret := "app-secret"

	t.Run("accepts a correct signature", func(t *testing.T) {
		assert.True(t, ValidSignature(body, secret, Sign(body, secret)))
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		header := Sign(body, secret)
		tampered := []byte(`{"entry":[1]}`)
		assert.False(t, ValidSignature(tampered, secret, header))
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		assert.False(t, ValidSignature(body, secret, Sign(body, "other-secret")))
	})

	t.Run("rejects malformed headers", func(t *testing.T) {
		assert.False(t, ValidSignature(body, secret, ""))
		assert.False(t, ValidSignature(body, secret, "md5=abc"))
		assert.False(t, ValidSignature(body, secret, "sha256=zzzz"))
	})

	t.Run("rejects when no secret is configured", func(t *testing.T) {
		assert.False(t, ValidSignature(body, "", Sign(body, "")))
	})
}

func TestVerifyChallenge(t *testing.T) {
	challenge, ok := VerifyChallenge("token-1", "subscribe", "token-1", "echo-me")
	require.True(t, ok)
	assert.Equal(t, "echo-me", challenge)

	_, ok = VerifyChallenge("token-1", "subscribe", "wrong", "echo-me")
	assert.False(t, ok)
	_, ok = VerifyChallenge("token-1", "unsubscribe", "token-1", "echo-me")
	assert.False(t, ok)
	_, ok = VerifyChallenge("", "subscribe", "", "echo-me")
	assert.False(t, ok)
}

func TestParseMessenger(t *testing.T) {
	t.Run("extracts text events", func(t *testing.T) {
		body := []byte(`{
			"object": "page",
			"entry": [{
				"id": "page-1",
				"messaging": [
					{"sender": {"id": "psid-9"}, "recipient": {"id": "page-1"}, "message": {"text": "hello"}},
					{"sender": {"id": "psid-9"}, "recipient": {"id": "page-1"}, "message": {"text": "again", "is_echo": true}},
					{"sender": {"id": "psid-9"}, "recipient": {"id": "page-1"}, "message": {}}
				]
			}]
		}`)
		events, err := ParseMessenger(body)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, models.PlatformMessenger, events[0].Platform)
		assert.Equal(t, "page-1", events[0].RecipientID)
		assert.Equal(t, "psid-9", events[0].SenderID)
		assert.Equal(t, "hello", events[0].Text)
	})

	t.Run("rejects non-page objects", func(t *testing.T) {
		_, err := ParseMessenger([]byte(`{"object": "user", "entry": []}`))
		assert.Error(t, err)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := ParseMessenger([]byte(`{`))
		assert.Error(t, err)
	})
}

func TestParseWhatsApp(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"value": {
					"metadata": {"phone_number_id": "phone-1"},
					"messages": [
						{"from": "15551234", "type": "text", "text": {"body": "book me in"}},
						{"from": "15551234", "type": "image"}
					]
				}
			}]
		}]
	}`)
	events, err := ParseWhatsApp(body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.PlatformWhatsApp, events[0].Platform)
	assert.Equal(t, "phone-1", events[0].RecipientID)
	assert.Equal(t, "15551234", events[0].SenderID)
	assert.Equal(t, "book me in", events[0].Text)
}

type scriptedHandler struct {
	calls   []orchestrator.InboundMessage
	outcome *orchestrator.Outcome
	err     error
}

func (h *scriptedHandler) Handle(_ context.Context, msg orchestrator.InboundMessage) (*orchestrator.Outcome, error) {
	h.calls = append(h.calls, msg)
	return h.outcome, h.err
}

type capturingSender struct {
	sent []string
}

func (s *capturingSender) Send(_ context.Context, recipientID, text string) error {
	s.sent = append(s.sent, recipientID+": "+text)
	return nil
}

func newProcessorFixture(t *testing.T, handler Handler, sender Sender) (*Processor, *store.Store, *models.Business) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Business{}, &models.PlatformBinding{}))

	st := store.New(db)
	business, _, err := st.CreateBusiness(context.Background(), store.CreateBusinessRequest{
		OwnerID:      "owner-1",
		BusinessName: "Webhook Co",
	})
	require.NoError(t, err)

	p := NewProcessor(st, handler, map[string]Sender{models.PlatformMessenger: sender})
	return p, st, business
}

func TestProcessorRoutesAndReplies(t *testing.T) {
	handler := &scriptedHandler{outcome: &orchestrator.Outcome{Reply: "welcome!"}}
	sender := &capturingSender{}
	p, st, business := newProcessorFixture(t, handler, sender)
	ctx := context.Background()

	_, err := st.BindPlatformAccount(ctx, business.ID, models.PlatformMessenger, "page-1")
	require.NoError(t, err)

	p.Process(ctx, []Event{{
		Platform:    models.PlatformMessenger,
		RecipientID: "page-1",
		SenderID:    "psid-9",
		Text:        "hello",
	}})

	require.Len(t, handler.calls, 1)
	assert.Equal(t, business.ID, handler.calls[0].BusinessID)
	assert.Equal(t, "hello", handler.calls[0].Text)
	assert.Equal(t, []string{"psid-9: welcome!"}, sender.sent)

	// The derived user ID is stable per platform identity.
	assert.Equal(t, internalUserID(models.PlatformMessenger, "psid-9"), handler.calls[0].UserID)
}

func TestProcessorUnboundAccount(t *testing.T) {
	handler := &scriptedHandler{outcome: &orchestrator.Outcome{Reply: "welcome!"}}
	sender := &capturingSender{}
	p, _, _ := newProcessorFixture(t, handler, sender)

	p.Process(context.Background(), []Event{{
		Platform:    models.PlatformMessenger,
		RecipientID: "page-unknown",
		SenderID:    "psid-9",
		Text:        "hello",
	}})

	assert.Empty(t, handler.calls, "events for unbound accounts are dropped")
	assert.Empty(t, sender.sent)
}

func TestProcessorSuppressedOutcome(t *testing.T) {
	handler := &scriptedHandler{outcome: &orchestrator.Outcome{Suppressed: true}}
	sender := &capturingSender{}
	p, st, business := newProcessorFixture(t, handler, sender)
	ctx := context.Background()

	_, err := st.BindPlatformAccount(ctx, business.ID, models.PlatformMessenger, "page-1")
	require.NoError(t, err)

	p.Process(ctx, []Event{{
		Platform:    models.PlatformMessenger,
		RecipientID: "page-1",
		SenderID:    "psid-9",
		Text:        "hello",
	}})

	require.Len(t, handler.calls, 1)
	assert.Empty(t, sender.sent, "suppressed outcomes must not reach the platform")
}
