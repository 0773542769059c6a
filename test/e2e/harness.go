// Package e2e drives the full server stack over real HTTP: sqlite-backed
// store, real orchestrator, scripted LLM, and stubbed platform Send APIs.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stagehand-io/stagehand/pkg/api"
	"github.com/stagehand-io/stagehand/pkg/config"
	"github.com/stagehand-io/stagehand/pkg/database"
	"github.com/stagehand-io/stagehand/pkg/llm"
	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/orchestrator"
	"github.com/stagehand-io/stagehand/pkg/stage"
	"github.com/stagehand-io/stagehand/pkg/store"
	"github.com/stagehand-io/stagehand/pkg/template"
	"github.com/stagehand-io/stagehand/pkg/webhook"
)

const (
	masterKey       = "e2e-master-key"
	messengerSecret = "e2e-hook-secret"
)

// graphStub stands in for the Meta Graph API, capturing outbound sends.
type graphStub struct {
	mu    sync.Mutex
	sends []map[string]any
}

func (g *graphStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		g.mu.Lock()
		g.sends = append(g.sends, payload)
		g.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
}

func (g *graphStub) sent() []map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]map[string]any, len(g.sends))
	copy(out, g.sends)
	return out
}

type env struct {
	t      *testing.T
	base   string
	client *http.Client
	llm    *llm.ScriptedClient
	store  *store.Store
	graph  *graphStub
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Business{},
		&models.PlatformBinding{},
		&models.Agent{},
		&models.User{},
		&models.Template{},
		&models.TemplateVariable{},
		&models.TemplateVariableUsage{},
		&models.Stage{},
		&models.StageTransition{},
		&models.Conversation{},
		&models.Message{},
		&models.ExtractedData{},
		&models.LLMCall{},
		&models.AuditLog{},
		&models.AIControlSetting{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	graph := &graphStub{}
	graphServer := httptest.NewServer(graph.handler())
	t.Cleanup(graphServer.Close)

	cfg := &config.Config{
		MasterAPIKey: masterKey,
		Webhooks: config.WebhookConfig{
			MessengerVerifyToken: "e2e-verify",
			MessengerAppSecret:   messengerSecret,
			MessengerPageToken:   "e2e-page-token",
		},
		Limits: config.RateLimitConfig{
			WritesPerMinute:  100,
			IngressPerMinute: 100,
			MessagesPerDay:   1000,
		},
		Pipeline: config.PipelineConfig{
			LeaseTimeout: 5 * time.Second,
		},
	}

	st := store.New(db)
	engine := template.NewEngine(st, template.NewRegistry())
	scripted := llm.NewScriptedClient()
	orc := orchestrator.New(st, engine, llm.NewService(scripted, st, time.Second),
		stage.NewMachine(st), orchestrator.Config{
			LeaseTimeout: cfg.Pipeline.LeaseTimeout,
		})

	senders := map[string]webhook.Sender{
		models.PlatformMessenger: webhook.NewMessengerSender("e2e-page-token", graphServer.URL),
	}
	processor := webhook.NewProcessor(st, orc, senders)

	server := api.NewServer(cfg, database.NewClientFromGorm(db, sqlDB), st, engine, orc, processor)
	httpSrv := httptest.NewServer(server.Router())
	t.Cleanup(httpSrv.Close)

	return &env{
		t:      t,
		base:   httpSrv.URL,
		client: httpSrv.Client(),
		llm:    scripted,
		store:  st,
		graph:  graph,
	}
}

// post sends a JSON request and decodes the JSON response body.
func (e *env) post(path, token string, body any, wantStatus int) map[string]any {
	e.t.Helper()
	return e.request(http.MethodPost, path, token, body, wantStatus)
}

func (e *env) get(path, token string, wantStatus int) map[string]any {
	e.t.Helper()
	return e.request(http.MethodGet, path, token, nil, wantStatus)
}

func (e *env) request(method, path, token string, body any, wantStatus int) map[string]any {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.base+path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	require.Equal(e.t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return out
}

// provisionBusiness creates a tenant through the API and returns its ID and
// API key.
func (e *env) provisionBusiness(name string) (string, string) {
	e.t.Helper()
	resp := e.post("/businesses", masterKey, map[string]string{
		"owner_id":      "owner-e2e",
		"business_name": name,
	}, http.StatusCreated)
	return resp["business_id"].(string), resp["api_key"].(string)
}

// configureStage creates the three pipeline templates plus a stage wired to
// them, all through the public API, and returns the stage ID.
func (e *env) configureStage(apiKey, name, stageType, generationContent string) string {
	e.t.Helper()

	templateIDs := map[string]string{}
	for field, tc := range map[string]struct{ typ, content string }{
		"stage_selection_template_id": {
			models.TemplateTypeStageSelection,
			"Stages:\n{{available_stages}}\nUser said: {{user_message}}",
		},
		"data_extraction_template_id": {
			models.TemplateTypeDataExtraction,
			"Extract {{fields}} from: {{user_message}}",
		},
		"response_generation_template_id": {
			models.TemplateTypeResponseGeneration,
			generationContent,
		},
	} {
		resp := e.post("/templates", apiKey, map[string]string{
			"template_name": name + " " + tc.typ,
			"template_type": tc.typ,
			"content":       tc.content,
		}, http.StatusCreated)
		templateIDs[field] = resp["template_id"].(string)
	}

	resp := e.post("/stages", apiKey, map[string]string{
		"stage_name":                      name,
		"stage_type":                      stageType,
		"stage_selection_template_id":     templateIDs["stage_selection_template_id"],
		"data_extraction_template_id":     templateIDs["data_extraction_template_id"],
		"response_generation_template_id": templateIDs["response_generation_template_id"],
	}, http.StatusCreated)
	return resp["stage_id"].(string)
}
