// Package worker consumes webhook payloads published on the event bus and
// hands them to the engine.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dukex/instaflow/pkg/eventbus"
	"github.com/dukex/instaflow/pkg/events"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/normalizer"
	"github.com/dukex/instaflow/pkg/persistence"
)

type Engine interface {
	HandleEvent(ctx context.Context, raw []byte) (models.ExecutionSummary, error)
}

type Worker struct {
	id              string
	logger          *slog.Logger
	engine          Engine
	bus             eventbus.EventBus
	maxTries        uint
	initialInterval time.Duration
}

type Option func(*Worker)

// WithRetry bounds how often a payload is retried while the flow store is
// unavailable before the message is handed back to the bus.
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(w *Worker) {
		w.maxTries = maxTries
		w.initialInterval = initialInterval
	}
}

func New(id string, logger *slog.Logger, engine Engine, bus eventbus.EventBus, opts ...Option) *Worker {
	w := &Worker{
		id:              id,
		logger:          logger.With("module", "worker", "worker_id", id),
		engine:          engine,
		bus:             bus,
		maxTries:        5,
		initialInterval: 200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start registers the webhook handler and subscribes until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker subscriptions")

	err := w.bus.Handle(events.WebhookReceivedEvent, w.handleWebhookReceived)
	if err != nil {
		return err
	}

	err = w.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	return nil
}

func (w *Worker) handleWebhookReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.WebhookReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WebhookReceived")

		return nil
	}

	logger := w.logger.With("event_id", received.ID)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.initialInterval

	summary, err := backoff.Retry(ctx, func() (models.ExecutionSummary, error) {
		summary, err := w.engine.HandleEvent(ctx, received.Payload)
		if err != nil && !persistence.IsStoreUnavailable(err) {
			return summary, backoff.Permanent(err)
		}

		return summary, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(w.maxTries))

	switch {
	case err == nil:
		logger.InfoContext(ctx, "Webhook payload handled",
			"events", summary.Events,
			"matched", summary.Matched,
			"failed", summary.Failed)

		return nil
	case normalizer.IsNormalizationError(err):
		// Redelivery cannot fix a payload the engine rejects.
		logger.WarnContext(ctx, "Dropping webhook payload", "error", err)

		return nil
	case errors.Is(err, context.Canceled):
		logger.InfoContext(ctx, "Webhook handling interrupted")

		return err
	default:
		logger.ErrorContext(ctx, "Failed to handle webhook payload", "error", err)

		return err
	}
}
