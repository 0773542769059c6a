// Package api exposes the tenant-facing HTTP surface and the platform
// webhook endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/config"
	"github.com/stagehand-io/stagehand/pkg/database"
	"github.com/stagehand-io/stagehand/pkg/ratelimit"
	"github.com/stagehand-io/stagehand/pkg/store"
	"github.com/stagehand-io/stagehand/pkg/template"
	"github.com/stagehand-io/stagehand/pkg/webhook"
)

// Server wires the HTTP routes to the domain services.
type Server struct {
	cfg       *config.Config
	db        *database.Client
	store     *store.Store
	engine    *template.Engine
	handler   webhook.Handler
	processor *webhook.Processor
	guard     *ratelimit.Guard

	httpServer *http.Server
}

// NewServer creates the server and registers all routes.
func NewServer(
	cfg *config.Config,
	db *database.Client,
	st *store.Store,
	engine *template.Engine,
	handler webhook.Handler,
	processor *webhook.Processor,
) *Server {
	s := &Server{
		cfg:       cfg,
		db:        db,
		store:     st,
		engine:    engine,
		handler:   handler,
		processor: processor,
		guard: ratelimit.NewGuard(
			cfg.Limits.WritesPerMinute,
			cfg.Limits.IngressPerMinute,
			cfg.Limits.MessagesPerDay,
		),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID())
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.health)
	router.GET("/ping", s.ping)

	router.POST("/api/save-config", s.saveConfig)

	router.GET("/webhooks/:platform", s.verifyWebhook)
	router.POST("/webhooks/:platform", s.receiveWebhook)

	master := router.Group("/", s.masterAuth(), s.masterWriteLimit())
	master.POST("/businesses", s.createBusiness)

	authed := router.Group("/", s.businessAuth())
	authed.GET("/businesses/:id", s.getBusiness)

	writes := authed.Group("/", s.writeLimit())
	writes.POST("/stages", s.createStage)
	writes.PUT("/stages/:id", s.updateStage)
	writes.DELETE("/stages/:id", s.deleteStage)
	writes.POST("/stage-transitions", s.createStageTransition)
	writes.POST("/templates", s.createTemplate)
	writes.PUT("/templates/:id", s.updateTemplate)
	writes.DELETE("/templates/:id", s.deleteTemplate)
	writes.POST("/platform-bindings", s.createPlatformBinding)
	writes.POST("/ai-control/pause", s.pauseAI)
	writes.POST("/ai-control/resume", s.resumeAI)

	authed.GET("/stages", s.listStages)
	authed.GET("/stages/:id", s.getStage)
	authed.GET("/templates", s.listTemplates)
	authed.GET("/templates/:id", s.getTemplate)
	authed.GET("/templates/:id/variables", s.listTemplateVariables)
	authed.GET("/conversations/:user_id", s.listConversations)
	authed.GET("/conversation/:conversation_id", s.conversationDetail)

	authed.POST("/message", s.ingressLimit(), s.postMessage)
}

// Start begins serving on addr. Blocks until the listener fails or the
// server is shut down.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying handler, for tests.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}
