package webhook

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/orchestrator"
	"github.com/stagehand-io/stagehand/pkg/store"
)

// Handler runs one inbound message through the pipeline. Implemented by
// the orchestrator; narrowed to an interface so tests can script it.
type Handler interface {
	Handle(ctx context.Context, msg orchestrator.InboundMessage) (*orchestrator.Outcome, error)
}

// Processor resolves platform events to tenants and routes them through the
// pipeline, sending replies back through the platform's Send API.
type Processor struct {
	store   *store.Store
	handler Handler
	senders map[string]Sender
}

// NewProcessor creates a processor. senders maps platform name to its
// delivery client; a platform without a sender gets its replies dropped
// with a warning.
func NewProcessor(st *store.Store, handler Handler, senders map[string]Sender) *Processor {
	if senders == nil {
		senders = map[string]Sender{}
	}
	return &Processor{store: st, handler: handler, senders: senders}
}

// Process handles a batch of normalized events. Events are independent: a
// failing event is logged and does not block the rest of the batch.
func (p *Processor) Process(ctx context.Context, events []Event) {
	for _, ev := range events {
		if err := p.processOne(ctx, ev); err != nil {
			slog.Error("Webhook event failed",
				"platform", ev.Platform,
				"recipient_id", ev.RecipientID,
				"error", err)
		}
	}
}

func (p *Processor) processOne(ctx context.Context, ev Event) error {
	business, err := p.store.LookupBusinessByPlatformAccount(ctx, ev.Platform, ev.RecipientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("Webhook for unbound platform account",
				"platform", ev.Platform, "recipient_id", ev.RecipientID)
			return nil
		}
		return err
	}

	outcome, err := p.handler.Handle(ctx, orchestrator.InboundMessage{
		BusinessID: business.ID,
		UserID:     internalUserID(ev.Platform, ev.SenderID),
		Text:       ev.Text,
		SenderType: models.SenderTypeUser,
	})
	if err != nil {
		return err
	}
	if outcome.Suppressed || outcome.Reply == "" {
		return nil
	}

	sender, ok := p.senders[ev.Platform]
	if !ok {
		slog.Warn("No sender configured for platform, dropping reply", "platform", ev.Platform)
		return nil
	}
	return sender.Send(ctx, ev.SenderID, outcome.Reply)
}

// internalUserID derives a stable internal user ID from a platform-side
// identity, so the same platform user always maps to the same User row.
func internalUserID(platform, platformUserID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(platform+":"+platformUserID)).String()
}
