package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-io/stagehand/pkg/models"
)

func TestOpenOrResumeConversation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Conv Co")

	t.Run("opens a conversation for a new user", func(t *testing.T) {
		conv, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-1", "", "")
		require.NoError(t, err)
		assert.Equal(t, models.ConversationStatusActive, conv.Status)
		assert.Empty(t, conv.CurrentStageID)
	})

	t.Run("resumes the active conversation", func(t *testing.T) {
		first, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-2", "", "")
		require.NoError(t, err)
		again, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-2", "", "")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("session scoping separates conversations", func(t *testing.T) {
		a, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-3", "", "session-a")
		require.NoError(t, err)
		b, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-3", "", "session-b")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestAppendMessage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Message Co")
	conv, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-1", "", "")
	require.NoError(t, err)

	t.Run("rejects an unknown sender type", func(t *testing.T) {
		_, err := st.AppendMessage(ctx, conv.ID, "robot", "hi")
		assert.True(t, IsValidationError(err))
	})

	t.Run("persists in chronological order", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := st.AppendMessage(ctx, conv.ID, models.SenderTypeUser, fmt.Sprintf("message %d", i))
			require.NoError(t, err)
		}
		msgs, err := st.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "message 0", msgs[0].Content)
		assert.Equal(t, "message 2", msgs[2].Content)
	})
}

func TestLastMessages(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Window Co")
	conv, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-1", "", "")
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		_, err := st.AppendMessage(ctx, conv.ID, models.SenderTypeUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	msgs, err := st.LastMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 10)
	// Window keeps the newest 10, returned oldest first.
	assert.Equal(t, "message 5", msgs[0].Content)
	assert.Equal(t, "message 14", msgs[9].Content)
}

func TestExtractedData(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Extract Co")
	stg := seedStage(t, st, business.ID, "booking")
	conv, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-1", "", "")
	require.NoError(t, err)

	_, err = st.RecordExtractedData(ctx, conv.ID, stg.ID, "data_extraction", models.JSONMap{
		"appointment_date": "2026-09-01",
	})
	require.NoError(t, err)

	rows, err := st.ListExtractedData(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "data_extraction", rows[0].DataType)
	assert.Equal(t, "2026-09-01", rows[0].Data["appointment_date"])
}

func TestTouchConversation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Touch Co")
	conv, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-1", "", "")
	require.NoError(t, err)

	before := conv.LastUpdated
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, st.TouchConversation(ctx, conv.ID, "call-123"))

	got, err := st.GetConversation(ctx, business.ID, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.LastUpdated.After(before))
	assert.Equal(t, "call-123", got.LLMCallID)
}
