// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestFlow creates an active flow with a new-message trigger and no other nodes.
func CreateTestFlow(overrides ...func(*models.AutomationFlow)) *models.AutomationFlow {
	flow := &models.AutomationFlow{
		ID:          uuid.New().String(),
		Name:        "Test Flow",
		Description: "Test flow description",
		IsActive:    true,
		Nodes:       []*models.FlowNode{TriggerNode("trigger", "new-message")},
		Edges:       []*models.FlowEdge{},
	}

	for _, override := range overrides {
		override(flow)
	}

	return flow
}

// WithID sets the flow id.
func WithID(id string) func(*models.AutomationFlow) {
	return func(f *models.AutomationFlow) {
		f.ID = id
	}
}

// WithName sets the flow name.
func WithName(name string) func(*models.AutomationFlow) {
	return func(f *models.AutomationFlow) {
		f.Name = name
	}
}

// WithInactive marks the flow inactive.
func WithInactive() func(*models.AutomationFlow) {
	return func(f *models.AutomationFlow) {
		f.IsActive = false
	}
}

// WithNodes replaces the flow nodes.
func WithNodes(nodes ...*models.FlowNode) func(*models.AutomationFlow) {
	return func(f *models.AutomationFlow) {
		f.Nodes = nodes
	}
}

// WithEdges replaces the flow edges.
func WithEdges(edges ...*models.FlowEdge) func(*models.AutomationFlow) {
	return func(f *models.AutomationFlow) {
		f.Edges = edges
	}
}

func TriggerNode(id, nodeType string) *models.FlowNode {
	return &models.FlowNode{ID: id, Role: models.NodeRoleTrigger, NodeType: nodeType, Name: nodeType}
}

func ConditionNode(id, nodeType string, config map[string]any) *models.FlowNode {
	return &models.FlowNode{ID: id, Role: models.NodeRoleCondition, NodeType: nodeType, Name: nodeType, Config: config}
}

func ActionNode(id, nodeType string, config map[string]any) *models.FlowNode {
	return &models.FlowNode{ID: id, Role: models.NodeRoleAction, NodeType: nodeType, Name: nodeType, Config: config}
}

// Edge connects source to target; the id is derived from both ends.
func Edge(source, target string) *models.FlowEdge {
	return &models.FlowEdge{ID: source + "->" + target, Source: source, Target: target}
}

// PriceInquiryFlow replies by DM to messages mentioning "price".
func PriceInquiryFlow(id string) *models.AutomationFlow {
	return CreateTestFlow(
		WithID(id),
		WithName("Price inquiry"),
		WithNodes(
			TriggerNode("n1", "new-message"),
			ConditionNode("n2", "keyword-filter", map[string]any{"keywords": []any{"price"}}),
			ActionNode("n3", "send-dm", map[string]any{"template": "Our price is $10"}),
		),
		WithEdges(Edge("n1", "n2"), Edge("n2", "n3")),
	)
}

// NewMessageEvent builds a new_message event from userID.
func NewMessageEvent(userID, text string) models.TriggerEvent {
	return models.TriggerEvent{
		Kind:         models.EventKindNewMessage,
		SourceUserID: userID,
		Text:         text,
		OccurredAt:   time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC),
	}
}

// NewCommentEvent builds a new_comment event on commentID.
func NewCommentEvent(userID, commentID, text string) models.TriggerEvent {
	return models.TriggerEvent{
		Kind:         models.EventKindNewComment,
		SourceUserID: userID,
		CommentID:    commentID,
		MediaID:      "media-1",
		Text:         text,
		OccurredAt:   time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC),
	}
}
