// Package eventbus moves webhook payloads and execution notifications between
// the API and the workers.
package eventbus

import (
	"context"

	"github.com/dukex/instaflow/pkg/events"
	"github.com/dukex/instaflow/pkg/models"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event. Returning an error
// nacks the message so it is delivered again.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// ExecutionNotifier publishes a FlowExecuted event for every finished execution.
type ExecutionNotifier struct {
	bus EventBus
}

func NewExecutionNotifier(bus EventBus) *ExecutionNotifier {
	return &ExecutionNotifier{bus: bus}
}

func (n *ExecutionNotifier) FlowExecuted(ctx context.Context, record models.ExecutionRecord) error {
	return n.bus.Publish(ctx, record.FlowID, events.NewFlowExecuted(n.bus.GenerateID(), record))
}
