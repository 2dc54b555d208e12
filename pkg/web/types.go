// Package web provides HTTP request and response types for the automation API.
package web

import (
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
)

// WebhookAcknowledgement is the body returned for every accepted webhook
// delivery, including payloads that were ignored.
const WebhookAcknowledgement = "EVENT_RECEIVED"

// FlowRequest is the request body for creating or replacing a flow.
type FlowRequest struct {
	Name        string             `json:"name"        validate:"required,min=3"`
	Description string             `json:"description"`
	IsActive    bool               `json:"is_active"`
	Nodes       []*models.FlowNode `json:"nodes"       validate:"required,min=1"`
	Edges       []*models.FlowEdge `json:"edges"`
}

func (r FlowRequest) ToFlow() *models.AutomationFlow {
	edges := r.Edges
	if edges == nil {
		edges = []*models.FlowEdge{}
	}

	return &models.AutomationFlow{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		Nodes:       r.Nodes,
		Edges:       edges,
	}
}

// TriggerEventRequest is an already normalized event submitted by hand.
type TriggerEventRequest struct {
	Kind           models.EventKind `json:"kind"            validate:"required"`
	SourceUserID   string           `json:"source_user_id"`
	SourceUsername string           `json:"source_username"`
	RecipientID    string           `json:"recipient_id"`
	Text           string           `json:"text"`
	MediaID        string           `json:"media_id"`
	CommentID      string           `json:"comment_id"`
	OccurredAt     *time.Time       `json:"occurred_at"`
}

// ToEvent builds the event, defaulting OccurredAt to now.
func (r TriggerEventRequest) ToEvent(now time.Time) models.TriggerEvent {
	occurredAt := now.UTC()
	if r.OccurredAt != nil {
		occurredAt = r.OccurredAt.UTC()
	}

	return models.TriggerEvent{
		Kind:           r.Kind,
		SourceUserID:   r.SourceUserID,
		SourceUsername: r.SourceUsername,
		RecipientID:    r.RecipientID,
		Text:           r.Text,
		MediaID:        r.MediaID,
		CommentID:      r.CommentID,
		OccurredAt:     occurredAt,
	}
}

// NodeTypeResponse describes one palette entry.
type NodeTypeResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Role        models.NodeRole `json:"role"`
	Schema      map[string]any  `json:"schema"`
}

func TransformNodeType(factory protocol.Factory) NodeTypeResponse {
	return NodeTypeResponse{
		ID:          factory.ID(),
		Name:        factory.Name(),
		Description: factory.Description(),
		Role:        factory.Role(),
		Schema:      factory.Schema(),
	}
}

// ExecutionsResponse lists recent execution records, newest first.
type ExecutionsResponse struct {
	Executions []models.ExecutionRecord `json:"executions"`
	Count      int                      `json:"count"`
}
