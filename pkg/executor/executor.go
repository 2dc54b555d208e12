// Package executor walks a flow graph for one trigger event and records the outcome.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/instaflow/pkg/dispatcher"
	"github.com/dukex/instaflow/pkg/metrics"
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/otelhelper"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ReasonUnknownNodeType = "unknown node type"
	ReasonInvalidConfig   = "invalid_config"

	noActionsDetails = "no actions executed"
)

// NodeStrategies creates condition and action strategies by node type.
type NodeStrategies interface {
	CreateCondition(nodeType string, config map[string]any) (protocol.Condition, error)
	CreateAction(nodeType string, config map[string]any) (protocol.Action, error)
}

// ActionDispatcher performs resolved action requests.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, request protocol.ActionRequest) dispatcher.Result
}

// ExecutionCounter bumps the per-flow execution counter.
type ExecutionCounter interface {
	IncrementExecutionCount(ctx context.Context, id string) error
}

// RecordAppender stores finished execution records and never fails.
type RecordAppender interface {
	Append(ctx context.Context, record models.ExecutionRecord)
}

type Executor struct {
	logger     *slog.Logger
	strategies NodeStrategies
	dispatcher ActionDispatcher
	counter    ExecutionCounter
	records    RecordAppender
	tracer     trace.Tracer
	strict     bool
	draining   func() bool
	now        func() time.Time
}

type Option func(*Executor)

// WithStrict makes configuration errors panic instead of being logged and skipped.
func WithStrict(strict bool) Option {
	return func(e *Executor) {
		e.strict = strict
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithDrainSignal is consulted before every action; once it reports true no
// further actions are started.
func WithDrainSignal(draining func() bool) Option {
	return func(e *Executor) {
		e.draining = draining
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(
	logger *slog.Logger,
	strategies NodeStrategies,
	actionDispatcher ActionDispatcher,
	counter ExecutionCounter,
	records RecordAppender,
	opts ...Option,
) *Executor {
	e := &Executor{
		logger:     logger.With("module", "graph_executor"),
		strategies: strategies,
		dispatcher: actionDispatcher,
		counter:    counter,
		records:    records,
		tracer:     otelhelper.NoopTracer(),
		draining:   func() bool { return false },
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// run is the state of one execution.
type run struct {
	flow     *models.AutomationFlow
	execCtx  *models.ExecutionContext
	logger   *slog.Logger
	visited  map[string]bool
	outcomes []models.ActionOutcome
}

// Execute runs flow for event and returns the appended record. The flow must
// be a snapshot owned by the caller. Nodes run sequentially, depth first in
// edge order, and each node runs at most once.
func (e *Executor) Execute(ctx context.Context, flow *models.AutomationFlow, event models.TriggerEvent) models.ExecutionRecord {
	startedAt := e.now()
	executionID := newExecutionID()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "flow.execute",
		attribute.String(otelhelper.FlowIDKey, flow.ID),
		attribute.String(otelhelper.FlowNameKey, flow.Name),
		attribute.String(otelhelper.TriggerKindKey, string(event.Kind)),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	r := &run{
		flow:     flow,
		execCtx:  models.NewExecutionContext(executionID, flow, event),
		visited:  make(map[string]bool, len(flow.Nodes)),
		outcomes: make([]models.ActionOutcome, 0),
		logger: e.logger.With(
			"flow_id", flow.ID,
			"execution_id", executionID,
			"trigger_kind", event.Kind,
		),
	}

	r.logger.InfoContext(ctx, "Starting flow execution")

	if trigger := flow.TriggerNode(); trigger != nil {
		r.visited[trigger.ID] = true
		e.walk(ctx, r, trigger.ID)
	} else {
		r.logger.WarnContext(ctx, "Flow has no trigger node")
	}

	status := aggregate(r.outcomes)
	duration := e.now().Sub(startedAt)

	record := models.ExecutionRecord{
		ID:          executionID,
		FlowID:      flow.ID,
		FlowName:    flow.Name,
		TriggerKind: event.Kind,
		Status:      status,
		Details:     details(r.outcomes),
		Actions:     r.outcomes,
		StartedAt:   startedAt.UTC(),
		DurationMs:  duration.Milliseconds(),
	}

	span.SetAttributes(attribute.String(otelhelper.StatusKey, string(status)))

	// The side effects already happened; bookkeeping must not be cut short.
	bookkeepingCtx := context.WithoutCancel(ctx)

	err := e.counter.IncrementExecutionCount(bookkeepingCtx, flow.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to increment execution count", "error", err)
	}

	e.records.Append(bookkeepingCtx, record)

	metrics.IncExecution(status)
	metrics.ObserveExecutionDuration(duration)

	r.logger.InfoContext(ctx, "Flow execution finished",
		"status", status,
		"actions", len(r.outcomes),
		"duration_ms", record.DurationMs)

	return record
}

func (e *Executor) walk(ctx context.Context, r *run, nodeID string) {
	for _, edge := range r.flow.OutgoingEdges(nodeID) {
		if r.visited[edge.Target] {
			continue
		}

		node := r.flow.NodeByID(edge.Target)
		if node == nil {
			r.logger.WarnContext(ctx, "Edge targets a missing node", "edge_id", edge.ID, "node_id", edge.Target)

			continue
		}

		r.visited[node.ID] = true

		switch node.Role {
		case models.NodeRoleCondition:
			if !e.evaluate(ctx, r, node) {
				continue
			}
		case models.NodeRoleAction:
			e.act(ctx, r, node)
		default:
			r.logger.WarnContext(ctx, "Skipping node with unexpected role", "node_id", node.ID, "role", node.Role)

			continue
		}

		e.walk(ctx, r, node.ID)
	}
}

// evaluate reports whether traversal continues past a condition node.
func (e *Executor) evaluate(ctx context.Context, r *run, node *models.FlowNode) bool {
	logger := r.logger.With("node_id", node.ID, "node_type", node.NodeType)

	condition, err := e.strategies.CreateCondition(node.NodeType, node.Config)
	if err != nil {
		e.configurationError(ctx, logger, node, err)

		return false
	}

	passed, err := condition.Evaluate(ctx, r.execCtx)
	if err != nil {
		logger.WarnContext(ctx, "Condition could not be evaluated, pruning branch", "error", err)

		return false
	}

	logger.DebugContext(ctx, "Condition evaluated", "passed", passed)

	return passed
}

func (e *Executor) act(ctx context.Context, r *run, node *models.FlowNode) {
	logger := r.logger.With("node_id", node.ID, "node_type", node.NodeType)
	outcome := models.ActionOutcome{NodeID: node.ID, NodeType: node.NodeType}

	if e.draining() {
		outcome.Reason = dispatcher.ReasonShutdown
		r.outcomes = append(r.outcomes, outcome)

		logger.InfoContext(ctx, "Not starting action during shutdown")

		return
	}

	action, err := e.strategies.CreateAction(node.NodeType, node.Config)
	if err != nil {
		e.configurationError(ctx, logger, node, err)

		outcome.Reason = ReasonInvalidConfig
		if errors.Is(err, protocol.ErrUnknownNodeType) {
			outcome.Reason = ReasonUnknownNodeType
		}

		r.outcomes = append(r.outcomes, outcome)

		return
	}

	outcome.Capability = string(action.Capability())

	request, err := action.Request(r.execCtx)
	if err != nil {
		logger.WarnContext(ctx, "Action could not be resolved", "error", err)

		outcome.Reason = ReasonInvalidConfig
		r.outcomes = append(r.outcomes, outcome)
		metrics.IncAction(outcome.Capability, false)

		return
	}

	request.NodeType = node.NodeType

	actionCtx, span := otelhelper.StartSpan(ctx, e.tracer, "action.dispatch",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.NodeType),
		attribute.String(otelhelper.CapabilityKey, outcome.Capability),
	)

	result := e.dispatcher.Dispatch(actionCtx, request)

	otelhelper.SetOutcome(span, result.OK, result.Reason)
	span.End()

	outcome.OK = result.OK
	outcome.Reason = result.Reason
	r.outcomes = append(r.outcomes, outcome)

	metrics.IncAction(outcome.Capability, result.OK)
	logger.InfoContext(ctx, "Action finished", "result", result.String())
}

// configurationError panics in strict mode when a node type is unknown and
// logs otherwise. Invalid configs of known types are always logged.
func (e *Executor) configurationError(ctx context.Context, logger *slog.Logger, node *models.FlowNode, err error) {
	if errors.Is(err, protocol.ErrUnknownNodeType) && e.strict {
		panic(fmt.Errorf("node %s: %w", node.ID, err))
	}

	otelhelper.SetError(trace.SpanFromContext(ctx), err,
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.NodeType),
	)

	logger.ErrorContext(ctx, "Node configuration error", "error", err)
}

func aggregate(outcomes []models.ActionOutcome) models.ExecutionStatus {
	succeeded := 0

	for _, outcome := range outcomes {
		if outcome.OK {
			succeeded++
		}
	}

	switch {
	case succeeded == len(outcomes):
		return models.ExecutionStatusSuccess
	case succeeded == 0:
		return models.ExecutionStatusError
	default:
		return models.ExecutionStatusPartialFailure
	}
}

// details renders outcomes in execution order, e.g.
// "send-dm(n3): ok; reply-comment(n4): failed: rate_limited".
func details(outcomes []models.ActionOutcome) string {
	if len(outcomes) == 0 {
		return noActionsDetails
	}

	parts := make([]string, 0, len(outcomes))

	for _, outcome := range outcomes {
		result := dispatcher.Ok()
		if !outcome.OK {
			result = dispatcher.Failed(outcome.Reason)
		}

		parts = append(parts, fmt.Sprintf("%s(%s): %s", outcome.NodeType, outcome.NodeID, result))
	}

	return strings.Join(parts, "; ")
}

func newExecutionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
