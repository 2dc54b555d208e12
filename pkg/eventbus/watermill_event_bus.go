package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/instaflow/pkg/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type WatermillEventBus struct {
	logger        *slog.Logger
	publisher     message.Publisher
	subscriber    message.Subscriber
	mu            sync.RWMutex
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(logger *slog.Logger, pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		logger:        logger.With("module", "event_bus"),
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))

	eb.logger.DebugContext(ctx, "Publishing event", "key", key, "event_type", event.GetType())

	return eb.publisher.Publish(events.Topic, msg)
}

// Subscribe starts delivering messages to the registered handlers until ctx
// is done. Messages without a handler are acked and skipped.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.deliver(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) deliver(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handler, exists := eb.subscriptions[eventType]
	eb.mu.RUnlock()

	if !exists {
		msg.Ack()

		return
	}

	var event any

	switch eventType {
	case events.WebhookReceivedEvent:
		event = &events.WebhookReceived{}
	case events.FlowExecutedEvent:
		event = &events.FlowExecuted{}
	default:
		eb.logger.WarnContext(ctx, "Dropping event of unknown type", "event_type", eventType)
		msg.Ack()

		return
	}

	err := json.Unmarshal(msg.Payload, event)
	if err != nil {
		// Redelivery cannot fix a payload that does not decode.
		eb.logger.ErrorContext(ctx, "Dropping undecodable event", "event_type", eventType, "error", err)
		msg.Ack()

		return
	}

	msgCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))

	err = handler(msgCtx, event)
	if err != nil {
		eb.logger.WarnContext(ctx, "Event handler failed", "event_type", eventType, "error", err)
		msg.Nack()

		return
	}

	msg.Ack()
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
