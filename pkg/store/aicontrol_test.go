package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-io/stagehand/pkg/models"
)

func TestAIPausedResolutionOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Pause Co")
	conv, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-1", "", "")
	require.NoError(t, err)

	t.Run("unpaused by default", func(t *testing.T) {
		paused, err := st.AIPaused(ctx, business.ID, conv.ID, "visitor-1")
		require.NoError(t, err)
		assert.False(t, paused)
	})

	t.Run("business pause applies to everyone", func(t *testing.T) {
		_, err := st.SetAIControl(ctx, business.ID, models.AIControlScopeBusiness, "", "", true, nil)
		require.NoError(t, err)

		paused, err := st.AIPaused(ctx, business.ID, conv.ID, "visitor-1")
		require.NoError(t, err)
		assert.True(t, paused)
	})

	t.Run("conversation resume overrides business pause", func(t *testing.T) {
		_, err := st.SetAIControl(ctx, business.ID, models.AIControlScopeConversation, conv.ID, "", false, nil)
		require.NoError(t, err)

		paused, err := st.AIPaused(ctx, business.ID, conv.ID, "visitor-1")
		require.NoError(t, err)
		assert.False(t, paused)
	})

	t.Run("user scope sits between conversation and business", func(t *testing.T) {
		other, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-2", "", "")
		require.NoError(t, err)

		_, err = st.SetAIControl(ctx, business.ID, models.AIControlScopeUser, "", "visitor-2", true, nil)
		require.NoError(t, err)

		paused, err := st.AIPaused(ctx, business.ID, other.ID, "visitor-2")
		require.NoError(t, err)
		assert.True(t, paused)
	})
}

func TestAIPausedExpiry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Expiry Co")
	conv, err := st.OpenOrResumeConversation(ctx, business.ID, "visitor-1", "", "")
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	_, err = st.SetAIControl(ctx, business.ID, models.AIControlScopeConversation, conv.ID, "", true, &past)
	require.NoError(t, err)

	paused, err := st.AIPaused(ctx, business.ID, conv.ID, "visitor-1")
	require.NoError(t, err)
	assert.False(t, paused, "an expired pause must not suppress replies")
}

func TestSetAIControlUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Upsert Co")

	first, err := st.SetAIControl(ctx, business.ID, models.AIControlScopeBusiness, "", "", true, nil)
	require.NoError(t, err)
	second, err := st.SetAIControl(ctx, business.ID, models.AIControlScopeBusiness, "", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same scope must update in place")
	assert.False(t, second.Paused)

	_, err = st.SetAIControl(ctx, business.ID, "galaxy", "", "", true, nil)
	assert.True(t, IsValidationError(err))
}

func TestDeleteExpiredAIControls(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Reaper Co")

	past := time.Now().Add(-time.Hour)
	_, err := st.SetAIControl(ctx, business.ID, models.AIControlScopeUser, "", "visitor-1", true, &past)
	require.NoError(t, err)
	_, err = st.SetAIControl(ctx, business.ID, models.AIControlScopeBusiness, "", "", true, nil)
	require.NoError(t, err)

	count, err := st.DeleteExpiredAIControls(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRecordLLMCall(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Trace Co")

	callID, err := st.RecordLLMCall(ctx, business.ID, models.LLMCallTypeGeneration,
		"system", "input", "output", "")
	require.NoError(t, err)
	assert.NotEmpty(t, callID)

	count, err := st.CountLLMCalls(ctx, business.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestWriteAudit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Audit Co")

	err := st.WriteAudit(ctx, business.ID, "visitor-1", models.AuditActionStageTransition, models.JSONMap{
		"from_stage_id": "a",
		"to_stage_id":   "b",
	})
	require.NoError(t, err)

	logs, err := st.ListAuditLogs(ctx, business.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionStageTransition, logs[0].ActionType)
}
