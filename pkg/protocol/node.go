// Package protocol defines the contracts for pluggable flow node strategies.
package protocol

import (
	"context"

	"github.com/dukex/instaflow/pkg/models"
)

// Factory describes a node type that can appear in a flow.
type Factory interface {
	// ID returns the nodeType key used in flows
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Role returns the role nodes of this type must have
	Role() models.NodeRole

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}

// ConfigValidator is implemented by factories that check config beyond the JSON schema.
type ConfigValidator interface {
	ValidateConfig(config map[string]any) error
}

// TriggerFactory describes a trigger node type.
type TriggerFactory interface {
	Factory

	// EventKind returns the event kind this trigger fires on
	EventKind() models.EventKind
}

// Condition is a predicate evaluated against the execution context.
type Condition interface {
	Evaluate(ctx context.Context, execCtx *models.ExecutionContext) (bool, error)
}

type ConditionFactory interface {
	Factory

	Create(config map[string]any) (Condition, error)
}

// Action resolves an action node into a dispatcher request.
type Action interface {
	Capability() Capability
	Request(execCtx *models.ExecutionContext) (ActionRequest, error)
}

type ActionFactory interface {
	Factory

	Create(config map[string]any) (Action, error)
}
