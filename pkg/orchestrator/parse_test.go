package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-io/stagehand/pkg/models"
)

var parseStages = []models.Stage{
	{ID: "s1", StageName: "greeting"},
	{ID: "s2", StageName: "booking"},
	{ID: "s3", StageName: "Follow Up"},
}

func TestParseStageSelection(t *testing.T) {
	t.Run("plain name", func(t *testing.T) {
		st, conf := parseStageSelection("booking", parseStages)
		require.NotNil(t, st)
		assert.Equal(t, "s2", st.ID)
		assert.Nil(t, conf)
	})

	t.Run("name with confidence suffix", func(t *testing.T) {
		st, conf := parseStageSelection("booking, confidence: 0.92", parseStages)
		require.NotNil(t, st)
		assert.Equal(t, "s2", st.ID)
		require.NotNil(t, conf)
		assert.InDelta(t, 0.92, *conf, 0.001)
	})

	t.Run("case and whitespace tolerant", func(t *testing.T) {
		st, _ := parseStageSelection("  FOLLOW UP \n", parseStages)
		require.NotNil(t, st)
		assert.Equal(t, "s3", st.ID)
	})

	t.Run("json form", func(t *testing.T) {
		st, conf := parseStageSelection(`{"stage": "greeting", "confidence": 0.7}`, parseStages)
		require.NotNil(t, st)
		assert.Equal(t, "s1", st.ID)
		require.NotNil(t, conf)
		assert.InDelta(t, 0.7, *conf, 0.001)
	})

	t.Run("json with unknown stage is a miss", func(t *testing.T) {
		st, conf := parseStageSelection(`{"stage": "refunds", "confidence": 0.9}`, parseStages)
		assert.Nil(t, st)
		require.NotNil(t, conf)
	})

	t.Run("stage name buried in prose", func(t *testing.T) {
		st, _ := parseStageSelection("The user clearly wants the booking flow here.", parseStages)
		require.NotNil(t, st)
		assert.Equal(t, "s2", st.ID)
	})

	t.Run("no match", func(t *testing.T) {
		st, _ := parseStageSelection("none of the above", parseStages)
		assert.Nil(t, st)
	})

	t.Run("empty response", func(t *testing.T) {
		st, conf := parseStageSelection("   ", parseStages)
		assert.Nil(t, st)
		assert.Nil(t, conf)
	})
}

func TestParseExtraction(t *testing.T) {
	t.Run("clean json object", func(t *testing.T) {
		got := parseExtraction(`{"appointment_date": "2026-09-01", "party_size": 4}`)
		assert.Equal(t, "2026-09-01", got["appointment_date"])
		assert.EqualValues(t, 4, got["party_size"])
	})

	t.Run("json wrapped in prose", func(t *testing.T) {
		got := parseExtraction("Sure, here you go:\n{\"name\": \"Ada\"}\nAnything else?")
		assert.Equal(t, "Ada", got["name"])
	})

	t.Run("non-json falls back to raw", func(t *testing.T) {
		got := parseExtraction("I could not find any fields")
		assert.Equal(t, "I could not find any fields", got["raw"])
	})

	t.Run("empty response", func(t *testing.T) {
		assert.Empty(t, parseExtraction(""))
	})
}
