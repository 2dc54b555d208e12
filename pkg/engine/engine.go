// Package engine ties normalization, matching and graph execution together
// behind the operations exposed to transports and the scheduler.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/instaflow/pkg/executionlog"
	"github.com/dukex/instaflow/pkg/executor"
	"github.com/dukex/instaflow/pkg/matcher"
	"github.com/dukex/instaflow/pkg/metrics"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/normalizer"
	"github.com/dukex/instaflow/pkg/persistence"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrentFlows bounds the flows executed at once for one event.
const DefaultMaxConcurrentFlows = 16

var ErrShuttingDown = errors.New("engine is shutting down")

// FlowStore is the part of the flow persistence the engine reads and bumps.
type FlowStore interface {
	ActiveFlows(ctx context.Context) ([]*models.AutomationFlow, error)
	FlowByID(ctx context.Context, id string) (*models.AutomationFlow, error)
	IncrementExecutionCount(ctx context.Context, id string) error
}

// ExecutionLog stores execution records.
type ExecutionLog interface {
	Append(ctx context.Context, record models.ExecutionRecord)
	Recent(ctx context.Context, limit int) ([]models.ExecutionRecord, error)
}

// Notifier is told about every finished execution.
type Notifier interface {
	FlowExecuted(ctx context.Context, record models.ExecutionRecord) error
}

type Engine struct {
	logger        *slog.Logger
	normalizer    *normalizer.Normalizer
	matcher       *matcher.TriggerMatcher
	executor      *executor.Executor
	flows         FlowStore
	log           ExecutionLog
	notifier      Notifier
	maxConcurrent int
	logCapacity   int

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

type options struct {
	objectType    string
	strict        bool
	tracer        trace.Tracer
	notifier      Notifier
	maxConcurrent int
	logCapacity   int
}

type Option func(*options)

// WithObjectType sets the webhook object accepted by the normalizer.
func WithObjectType(objectType string) Option {
	return func(o *options) {
		o.objectType = objectType
	}
}

// WithStrict makes unknown node types panic, for development.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// WithMaxConcurrentFlows bounds concurrent flow executions per event. Zero
// or less means no bound.
func WithMaxConcurrentFlows(n int) Option {
	return func(o *options) {
		o.maxConcurrent = n
	}
}

// WithLogCapacity sets the retention cap used to clamp RecentExecutions.
func WithLogCapacity(capacity int) Option {
	return func(o *options) {
		o.logCapacity = capacity
	}
}

func New(
	logger *slog.Logger,
	flows FlowStore,
	strategies executor.NodeStrategies,
	dispatcher executor.ActionDispatcher,
	log ExecutionLog,
	opts ...Option,
) *Engine {
	o := options{
		maxConcurrent: DefaultMaxConcurrentFlows,
		logCapacity:   executionlog.DefaultCapacity,
	}

	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		logger:        logger.With("module", "engine"),
		normalizer:    normalizer.New(logger, o.objectType),
		matcher:       matcher.NewTriggerMatcher(logger),
		flows:         flows,
		log:           log,
		notifier:      o.notifier,
		maxConcurrent: o.maxConcurrent,
		logCapacity:   o.logCapacity,
	}

	executorOpts := []executor.Option{
		executor.WithStrict(o.strict),
		executor.WithDrainSignal(e.Draining),
	}
	if o.tracer != nil {
		executorOpts = append(executorOpts, executor.WithTracer(o.tracer))
	}

	e.executor = executor.NewExecutor(logger, strategies, dispatcher, flows, log, executorOpts...)

	return e
}

// HandleEvent normalizes a raw webhook payload and executes every active
// flow matching each resulting event. Normalization errors are returned as
// *normalizer.NormalizationError and nothing runs. Flow store read failures
// wrap persistence.ErrStoreUnavailable.
func (e *Engine) HandleEvent(ctx context.Context, raw []byte) (models.ExecutionSummary, error) {
	err := e.begin()
	if err != nil {
		return models.ExecutionSummary{}, err
	}
	defer e.inflight.Done()

	seq, err := e.normalizer.Normalize(raw)
	if err != nil {
		metrics.IncNormalizationError(normalizationReason(err))
		e.logger.WarnContext(ctx, "Ignoring payload", "error", err)

		return models.ExecutionSummary{}, err
	}

	var (
		summary models.ExecutionSummary
		flows   []*models.AutomationFlow
		loaded  bool
	)

	for event := range seq {
		if !loaded {
			flows, err = e.activeFlows(ctx)
			if err != nil {
				return summary, err
			}

			loaded = true
		}

		summary.Merge(e.run(ctx, event, flows))
	}

	e.logger.InfoContext(ctx, "Handled webhook payload",
		"events", summary.Events,
		"matched", summary.Matched,
		"failed", summary.Failed)

	return summary, nil
}

// Dispatch executes every active flow matching an already normalized event.
func (e *Engine) Dispatch(ctx context.Context, event models.TriggerEvent) (models.ExecutionSummary, error) {
	err := e.begin()
	if err != nil {
		return models.ExecutionSummary{}, err
	}
	defer e.inflight.Done()

	flows, err := e.activeFlows(ctx)
	if err != nil {
		return models.ExecutionSummary{}, err
	}

	return e.run(ctx, event, flows), nil
}

// RunFlow executes one flow for event regardless of its trigger kind or
// active state.
func (e *Engine) RunFlow(ctx context.Context, flowID string, event models.TriggerEvent) (models.ExecutionRecord, error) {
	err := e.begin()
	if err != nil {
		return models.ExecutionRecord{}, err
	}
	defer e.inflight.Done()

	flow, err := e.flows.FlowByID(ctx, flowID)
	if err != nil {
		if persistence.IsFlowNotFound(err) || persistence.IsStoreUnavailable(err) {
			return models.ExecutionRecord{}, err
		}

		return models.ExecutionRecord{}, persistence.Unavailable("flow_by_id", err)
	}

	metrics.IncEvent(event.Kind)

	record := e.executor.Execute(ctx, flow.Clone(), event)
	e.notify(ctx, record)

	return record, nil
}

// RecentExecutions returns up to limit records, newest first. The limit is
// clamped to the log retention cap.
func (e *Engine) RecentExecutions(ctx context.Context, limit int) ([]models.ExecutionRecord, error) {
	return e.log.Recent(ctx, executionlog.ClampLimit(limit, e.logCapacity))
}

// Draining reports whether Shutdown has been called.
func (e *Engine) Draining() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.draining
}

// Shutdown rejects new work and waits for in-flight executions. Actions not
// yet started are recorded as failed with reason shutdown.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.draining = true
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Draining in-flight executions")

	done := make(chan struct{})

	go func() {
		e.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.InfoContext(ctx, "All executions finished")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draining {
		return ErrShuttingDown
	}

	e.inflight.Add(1)

	return nil
}

func (e *Engine) activeFlows(ctx context.Context) ([]*models.AutomationFlow, error) {
	flows, err := e.flows.ActiveFlows(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load active flows", "error", err)

		if persistence.IsStoreUnavailable(err) {
			return nil, err
		}

		return nil, persistence.Unavailable("active_flows", err)
	}

	return flows, nil
}

// run executes the flows matching event concurrently, each on its own snapshot.
func (e *Engine) run(ctx context.Context, event models.TriggerEvent, flows []*models.AutomationFlow) models.ExecutionSummary {
	metrics.IncEvent(event.Kind)

	summary := models.ExecutionSummary{Events: 1}

	matched := e.matcher.Match(event, flows)
	if len(matched) == 0 {
		e.logger.DebugContext(ctx, "No flow matched event", "trigger_kind", event.Kind)

		return summary
	}

	records := make([]models.ExecutionRecord, len(matched))

	var g errgroup.Group

	limit := e.maxConcurrent
	if limit <= 0 {
		limit = -1
	}

	g.SetLimit(limit)

	startedAt := time.Now()

	for i, flow := range matched {
		snapshot := flow.Clone()

		g.Go(func() error {
			records[i] = e.executor.Execute(ctx, snapshot, event)
			e.notify(ctx, records[i])

			return nil
		})
	}

	_ = g.Wait()

	for _, record := range records {
		summary.Add(record)
	}

	e.logger.DebugContext(ctx, "Executed matching flows",
		"trigger_kind", event.Kind,
		"matched", len(matched),
		"elapsed", time.Since(startedAt))

	return summary
}

func (e *Engine) notify(ctx context.Context, record models.ExecutionRecord) {
	if e.notifier == nil {
		return
	}

	err := e.notifier.FlowExecuted(context.WithoutCancel(ctx), record)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish execution", "execution_id", record.ID, "error", err)
	}
}

func normalizationReason(err error) string {
	if errors.Is(err, normalizer.ErrUnsupportedObjectType) {
		return "unsupported_object_type"
	}

	return "malformed_payload"
}
