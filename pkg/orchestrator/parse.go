package orchestrator

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// confidenceRe matches the conventional ", confidence: 0.9" suffix,
// tolerant of case and surrounding text.
var confidenceRe = regexp.MustCompile(`(?i)confidence\s*[:=]\s*([0-9]*\.?[0-9]+)`)

type stageSelectionJSON struct {
	Stage      string   `json:"stage"`
	Confidence *float64 `json:"confidence"`
}

// parseStageSelection interprets a phase-1 LLM response. The strict JSON
// form {"stage": "...", "confidence": 0.9} is tried first, then the
// conventional "StageName, confidence: 0.9" form. Stage names are matched
// canonically (trim, lowercase). A nil stage means no match; the caller
// keeps the current stage.
func parseStageSelection(response string, stages []models.Stage) (*models.Stage, *float64) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, nil
	}

	if parsed := tryJSONSelection(response); parsed != nil {
		if st := matchStage(parsed.Stage, stages); st != nil {
			return st, parsed.Confidence
		}
		return nil, parsed.Confidence
	}

	var confidence *float64
	if m := confidenceRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			confidence = &v
		}
	}

	// First comma-separated token is the conventional stage name position.
	candidate := response
	if idx := strings.IndexAny(response, ",\n"); idx >= 0 {
		candidate = response[:idx]
	}
	if st := matchStage(candidate, stages); st != nil {
		return st, confidence
	}

	// Tolerate surrounding text: look for any stage name inside the body.
	lower := strings.ToLower(response)
	for i := range stages {
		if strings.Contains(lower, strings.ToLower(stages[i].StageName)) {
			return &stages[i], confidence
		}
	}
	return nil, confidence
}

func tryJSONSelection(response string) *stageSelectionJSON {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil
	}
	var parsed stageSelectionJSON
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil
	}
	if parsed.Stage == "" {
		return nil
	}
	return &parsed
}

func matchStage(name string, stages []models.Stage) *models.Stage {
	canonical := strings.ToLower(strings.TrimSpace(name))
	if canonical == "" {
		return nil
	}
	for i := range stages {
		if strings.ToLower(strings.TrimSpace(stages[i].StageName)) == canonical {
			return &stages[i]
		}
	}
	return nil
}

// parseExtraction interprets a phase-2 LLM response as a structured object,
// falling back to {"raw": text} when it is not JSON.
func parseExtraction(response string) models.JSONMap {
	response = strings.TrimSpace(response)
	if response == "" {
		return models.JSONMap{}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		var parsed models.JSONMap
		if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err == nil {
			return parsed
		}
	}
	return models.JSONMap{"raw": response}
}
