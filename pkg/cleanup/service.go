// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/stagehand-io/stagehand/pkg/config"
	"github.com/stagehand-io/stagehand/pkg/store"
)

// Service periodically enforces retention policies:
//   - Removes LLM call traces past the retention window
//   - Removes audit log entries past the retention window
//   - Removes expired AI pause settings
//
// All operations are idempotent and safe to run from multiple pods.
type Service struct {
	config *config.RetentionConfig
	store  *store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, st *store.Store) *Service {
	return &Service{
		config: cfg,
		store:  st,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"llm_call_retention_days", s.config.LLMCallRetentionDays,
		"audit_retention_days", s.config.AuditRetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.cleanupLLMCalls(ctx)
	s.cleanupAuditLogs(ctx)
	s.cleanupExpiredAIControls(ctx)
}

func (s *Service) cleanupLLMCalls(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.config.LLMCallRetentionDays)
	count, err := s.store.DeleteLLMCallsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: LLM call cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: deleted old LLM call traces", "count", count)
	}
}

func (s *Service) cleanupAuditLogs(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.config.AuditRetentionDays)
	count, err := s.store.DeleteAuditLogsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: audit log cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: deleted old audit log entries", "count", count)
	}
}

func (s *Service) cleanupExpiredAIControls(ctx context.Context) {
	count, err := s.store.DeleteExpiredAIControls(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("Retention: AI control cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: deleted expired AI pause settings", "count", count)
	}
}
