// Package llm provides the narrow client contract for the language model
// backend, a recording layer that persists every call, and a scripted mock.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/stagehand-io/stagehand/pkg/store"
)

// Client is the transport-level contract: exactly one LLM request per call,
// no retries. Callers decide what a failure means.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service wraps a Client and records every invocation attempt via the store
// before returning, success or not.
type Service struct {
	client  Client
	store   *store.Store
	timeout time.Duration
}

// NewService creates the recording LLM service. timeout bounds each call.
func NewService(client Client, st *store.Store, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{client: client, store: st, timeout: timeout}
}

// Complete performs one LLM call and persists its trace. The returned call
// ID identifies the trace row; it is set on failures too.
func (s *Service) Complete(ctx context.Context, businessID, callType, systemPrompt, userPrompt string) (string, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Complete(callCtx, systemPrompt, userPrompt)

	errClass := ""
	if err != nil {
		text = ""
		errClass = classify(err)
	}

	// The trace must survive request cancellation: record with a fresh
	// deadline, not the (possibly dead) request context.
	recordCtx, recordCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer recordCancel()

	callID, recordErr := s.store.RecordLLMCall(recordCtx, businessID, callType, systemPrompt, userPrompt, text, errClass)
	if recordErr != nil {
		if err != nil {
			return "", "", errors.Join(err, recordErr)
		}
		return "", "", recordErr
	}
	if err != nil {
		return "", callID, err
	}
	return text, callID, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "llm_failure"
	}
}
