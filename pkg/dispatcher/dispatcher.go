// Package dispatcher executes resolved action requests against external collaborators.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukex/instaflow/pkg/platform"
	"github.com/dukex/instaflow/pkg/protocol"
)

const (
	DefaultTimeout = 10 * time.Second

	ReasonTimeout  = "timeout"
	ReasonShutdown = "shutdown"
)

// Result is the outcome of one dispatched action. Remote failures are values.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func Ok() Result {
	return Result{OK: true}
}

func Failed(reason string) Result {
	return Result{Reason: reason}
}

func (r Result) String() string {
	if r.OK {
		return "ok"
	}

	return "failed: " + r.Reason
}

// Handler performs one capability.
type Handler func(ctx context.Context, request protocol.ActionRequest) error

// WebhookCaller is the subset of httpcall.Caller the dispatcher needs.
type WebhookCaller interface {
	Call(ctx context.Context, method, url string, headers map[string]string, body []byte) error
}

type Dispatcher struct {
	logger   *slog.Logger
	handlers map[protocol.Capability]Handler
	timeout  time.Duration
	strict   bool
}

type Option func(*Dispatcher)

// WithTimeout bounds every dispatched call.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithStrict makes an unknown capability panic instead of failing the action.
func WithStrict(strict bool) Option {
	return func(d *Dispatcher) {
		d.strict = strict
	}
}

// WithHandler registers or replaces the handler of a capability.
func WithHandler(capability protocol.Capability, handler Handler) Option {
	return func(d *Dispatcher) {
		d.handlers[capability] = handler
	}
}

func New(logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:   logger.With("module", "dispatcher"),
		handlers: make(map[protocol.Capability]Handler),
		timeout:  DefaultTimeout,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// NewPlatformDispatcher wires the built-in capabilities to the given collaborators.
func NewPlatformDispatcher(logger *slog.Logger, client platform.Client, caller WebhookCaller, opts ...Option) *Dispatcher {
	handlers := []Option{
		WithHandler(protocol.CapabilitySendMessage, func(ctx context.Context, request protocol.ActionRequest) error {
			return client.SendMessage(ctx, request.RecipientID, request.Text)
		}),
		WithHandler(protocol.CapabilityReplyToComment, func(ctx context.Context, request protocol.ActionRequest) error {
			return client.ReplyToComment(ctx, request.CommentID, request.Text)
		}),
		WithHandler(protocol.CapabilityCallWebhook, func(ctx context.Context, request protocol.ActionRequest) error {
			return caller.Call(ctx, request.Method, request.URL, request.Headers, request.Body)
		}),
	}

	return New(logger, append(handlers, opts...)...)
}

// Capabilities lists the registered capabilities.
func (d *Dispatcher) Capabilities() []protocol.Capability {
	capabilities := make([]protocol.Capability, 0, len(d.handlers))
	for capability := range d.handlers {
		capabilities = append(capabilities, capability)
	}

	sort.Slice(capabilities, func(i, j int) bool { return capabilities[i] < capabilities[j] })

	return capabilities
}

// Dispatch runs the handler registered for request.Capability with a bounded
// deadline. The call is detached from ctx cancellation so an in-flight side
// effect is never torn down halfway; only the timeout stops it.
func (d *Dispatcher) Dispatch(ctx context.Context, request protocol.ActionRequest) Result {
	handler, ok := d.handlers[request.Capability]
	if !ok {
		err := &protocol.ConfigurationError{
			NodeType: request.NodeType,
			Err:      protocol.ErrUnknownCapability,
			Detail:   string(request.Capability),
		}

		if d.strict {
			panic(err)
		}

		d.logger.ErrorContext(ctx, "Unknown capability", "capability", request.Capability, "node_type", request.NodeType)

		return Failed(fmt.Sprintf("unknown capability %s", request.Capability))
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	err := handler(callCtx, request)
	if err == nil {
		return Ok()
	}

	reason := reasonFor(callCtx, err)

	d.logger.WarnContext(ctx, "Action failed",
		"capability", request.Capability,
		"node_type", request.NodeType,
		"reason", reason,
		"error", err)

	return Failed(reason)
}

func reasonFor(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}

	if reason, ok := platform.ReasonOf(err); ok {
		return reason
	}

	return err.Error()
}
