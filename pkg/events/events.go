// Package events defines the messages exchanged over the event bus.
package events

import (
	"time"

	"github.com/dukex/instaflow/pkg/models"
)

type EventType string

// Topic carries every instaflow event.
const Topic = "instaflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// A raw webhook payload accepted by the API, to be handled by a worker.
	WebhookReceivedEvent EventType = "webhook.received"
	// A flow execution finished and its record was appended.
	FlowExecutedEvent EventType = "flow.executed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type WebhookReceived struct {
	BaseEvent

	// Payload is the request body as received, valid JSON or not.
	Payload []byte `json:"payload"`
}

func (w WebhookReceived) GetType() EventType {
	return WebhookReceivedEvent
}

func NewWebhookReceived(id string, payload []byte) WebhookReceived {
	return WebhookReceived{
		BaseEvent: BaseEvent{ID: id, Type: WebhookReceivedEvent, Timestamp: time.Now().UTC()},
		Payload:   payload,
	}
}

type FlowExecuted struct {
	BaseEvent

	Record models.ExecutionRecord `json:"record"`
}

func (f FlowExecuted) GetType() EventType {
	return FlowExecutedEvent
}

func NewFlowExecuted(id string, record models.ExecutionRecord) FlowExecuted {
	return FlowExecuted{
		BaseEvent: BaseEvent{ID: id, Type: FlowExecutedEvent, Timestamp: time.Now().UTC()},
		Record:    record,
	}
}
