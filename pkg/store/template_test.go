package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-io/stagehand/pkg/models"
)

func TestInsertTemplate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Template Co")

	t.Run("rejects an unknown type", func(t *testing.T) {
		_, err := st.InsertTemplate(ctx, CreateTemplateRequest{
			BusinessID:   business.ID,
			TemplateName: "bad",
			TemplateType: "sonnet",
			Content:      "x",
		})
		assert.True(t, IsValidationError(err))
	})

	t.Run("persists and scopes by business", func(t *testing.T) {
		tpl, err := st.InsertTemplate(ctx, CreateTemplateRequest{
			BusinessID:   business.ID,
			TemplateName: "greeting",
			TemplateType: models.TemplateTypeResponseGeneration,
			Content:      "Hello {{user_name}}",
			SystemPrompt: "Be kind.",
		})
		require.NoError(t, err)

		got, err := st.GetTemplate(ctx, business.ID, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello {{user_name}}", got.Content)

		other := seedBusiness(t, st, "Snooper Co")
		_, err = st.GetTemplate(ctx, other.ID, tpl.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestFindTemplateByType(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Default Co")

	_, err := st.FindTemplateByType(ctx, business.ID, models.TemplateTypeDefaultStageSelection)
	assert.ErrorIs(t, err, ErrNotFound)

	tpl, err := st.InsertTemplate(ctx, CreateTemplateRequest{
		BusinessID:   business.ID,
		TemplateName: "fallback selection",
		TemplateType: models.TemplateTypeDefaultStageSelection,
		Content:      "{{available_stages}}",
	})
	require.NoError(t, err)

	found, err := st.FindTemplateByType(ctx, business.ID, models.TemplateTypeDefaultStageSelection)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, found.ID)
}

func TestEnsureVariable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("stubs an unknown name", func(t *testing.T) {
		v, err := st.EnsureVariable(ctx, "appointment_date")
		require.NoError(t, err)
		assert.Equal(t, models.VariableCategoryUnknown, v.Category)
	})

	t.Run("is idempotent", func(t *testing.T) {
		first, err := st.EnsureVariable(ctx, "pet_name")
		require.NoError(t, err)
		again, err := st.EnsureVariable(ctx, "pet_name")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})
}

func TestReplaceVariableUsage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Usage Co")

	tpl, err := st.InsertTemplate(ctx, CreateTemplateRequest{
		BusinessID:   business.ID,
		TemplateName: "greeting",
		TemplateType: models.TemplateTypeResponseGeneration,
		Content:      "x",
	})
	require.NoError(t, err)

	a, err := st.EnsureVariable(ctx, "user_name")
	require.NoError(t, err)
	b, err := st.EnsureVariable(ctx, "business_name")
	require.NoError(t, err)

	require.NoError(t, st.ReplaceVariableUsage(ctx, tpl.ID, []string{a.ID, b.ID}))
	names, err := st.ListVariableUsage(ctx, tpl.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user_name", "business_name"}, names)

	// A replace with fewer variables drops the stale rows.
	require.NoError(t, st.ReplaceVariableUsage(ctx, tpl.ID, []string{a.ID}))
	names, err = st.ListVariableUsage(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_name"}, names)
}

func TestDeleteTemplate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, st, "Cleanup Co")

	tpl, err := st.InsertTemplate(ctx, CreateTemplateRequest{
		BusinessID:   business.ID,
		TemplateName: "to delete",
		TemplateType: models.TemplateTypeDataExtraction,
		Content:      "x",
	})
	require.NoError(t, err)

	v, err := st.EnsureVariable(ctx, "user_message")
	require.NoError(t, err)
	require.NoError(t, st.ReplaceVariableUsage(ctx, tpl.ID, []string{v.ID}))

	require.NoError(t, st.DeleteTemplate(ctx, business.ID, tpl.ID))
	_, err = st.GetTemplate(ctx, business.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := st.ListVariableUsage(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, names)
}
