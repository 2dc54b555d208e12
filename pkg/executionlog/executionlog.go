// Package executionlog records the outcome of every flow execution.
package executionlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dukex/instaflow/pkg/models"
)

// DefaultCapacity is how many records a backend keeps before evicting the oldest.
const DefaultCapacity = 500

// Store is an append-only, bounded, newest-first record store.
// Append must be atomic: concurrent appends never lose or interleave records.
type Store interface {
	Append(ctx context.Context, record models.ExecutionRecord) error
	Recent(ctx context.Context, limit int) ([]models.ExecutionRecord, error)
	Close() error
}

// Log is the execution log used by the executor. Appends never fail the
// caller: backend errors are retried and then logged and dropped.
type Log struct {
	store           Store
	logger          *slog.Logger
	maxTries        uint
	initialInterval time.Duration
}

type Option func(*Log)

func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(l *Log) {
		l.maxTries = maxTries
		l.initialInterval = initialInterval
	}
}

func New(logger *slog.Logger, store Store, opts ...Option) *Log {
	l := &Log{
		store:           store,
		logger:          logger.With("module", "execution_log"),
		maxTries:        3,
		initialInterval: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Log) Append(ctx context.Context, record models.ExecutionRecord) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = l.initialInterval

	_, err := backoff.Retry(context.WithoutCancel(ctx), func() (struct{}, error) {
		return struct{}{}, l.store.Append(ctx, record)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(l.maxTries))
	if err != nil {
		l.logger.ErrorContext(ctx, "Dropping execution record",
			"execution_id", record.ID,
			"flow_id", record.FlowID,
			"status", record.Status,
			"error", err)
	}
}

// Recent returns up to limit records, newest first. A limit of zero or less
// returns an empty slice without reading the store.
func (l *Log) Recent(ctx context.Context, limit int) ([]models.ExecutionRecord, error) {
	if limit <= 0 {
		return []models.ExecutionRecord{}, nil
	}

	return l.store.Recent(ctx, limit)
}

func (l *Log) Close() error {
	return l.store.Close()
}

// ClampLimit bounds a requested limit to [0, capacity]. Zero or negative
// limits ask for nothing.
func ClampLimit(limit, capacity int) int {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if limit <= 0 {
		return 0
	}

	if limit > capacity {
		return capacity
	}

	return limit
}
