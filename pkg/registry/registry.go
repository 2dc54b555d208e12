// Package registry keeps the node strategies available to flows, keyed by nodeType.
package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger             *slog.Logger
	triggerFactories   map[string]protocol.TriggerFactory
	conditionFactories map[string]protocol.ConditionFactory
	actionFactories    map[string]protocol.ActionFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:             log.With("module", "registry"),
		triggerFactories:   make(map[string]protocol.TriggerFactory),
		conditionFactories: make(map[string]protocol.ConditionFactory),
		actionFactories:    make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterTrigger(factory protocol.TriggerFactory) {
	r.triggerFactories[factory.ID()] = factory
}

func (r *Registry) RegisterCondition(factory protocol.ConditionFactory) {
	r.conditionFactories[factory.ID()] = factory
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// Trigger returns the trigger factory registered for nodeType.
func (r *Registry) Trigger(nodeType string) (protocol.TriggerFactory, bool) {
	factory, ok := r.triggerFactories[nodeType]

	return factory, ok
}

func (r *Registry) CreateCondition(nodeType string, config map[string]any) (protocol.Condition, error) {
	factory, ok := r.conditionFactories[nodeType]
	if !ok {
		return nil, &protocol.ConfigurationError{NodeType: nodeType, Err: protocol.ErrUnknownNodeType}
	}

	return factory.Create(config)
}

func (r *Registry) CreateAction(nodeType string, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[nodeType]
	if !ok {
		return nil, &protocol.ConfigurationError{NodeType: nodeType, Err: protocol.ErrUnknownNodeType}
	}

	return factory.Create(config)
}

// Factory returns the factory registered for nodeType regardless of role.
func (r *Registry) Factory(nodeType string) (protocol.Factory, bool) {
	if factory, ok := r.triggerFactories[nodeType]; ok {
		return factory, true
	}

	if factory, ok := r.conditionFactories[nodeType]; ok {
		return factory, true
	}

	if factory, ok := r.actionFactories[nodeType]; ok {
		return factory, true
	}

	return nil, false
}

// Factories returns every registered factory ordered by role then id.
func (r *Registry) Factories() []protocol.Factory {
	factories := make([]protocol.Factory, 0, len(r.triggerFactories)+len(r.conditionFactories)+len(r.actionFactories))

	for _, factory := range r.triggerFactories {
		factories = append(factories, factory)
	}

	for _, factory := range r.conditionFactories {
		factories = append(factories, factory)
	}

	for _, factory := range r.actionFactories {
		factories = append(factories, factory)
	}

	order := map[models.NodeRole]int{
		models.NodeRoleTrigger:   0,
		models.NodeRoleCondition: 1,
		models.NodeRoleAction:    2,
	}

	slices.SortFunc(factories, func(a, b protocol.Factory) int {
		if order[a.Role()] != order[b.Role()] {
			return order[a.Role()] - order[b.Role()]
		}

		return strings.Compare(a.ID(), b.ID())
	})

	return factories
}

// ValidateNode checks that the node type exists for the node role and that
// its config satisfies the factory schema.
func (r *Registry) ValidateNode(node *models.FlowNode) error {
	factory, ok := r.Factory(node.NodeType)
	if !ok {
		return &protocol.ConfigurationError{NodeType: node.NodeType, NodeID: node.ID, Err: protocol.ErrUnknownNodeType}
	}

	if factory.Role() != node.Role {
		return &protocol.ConfigurationError{
			NodeType: node.NodeType,
			NodeID:   node.ID,
			Err:      protocol.ErrRoleMismatch,
			Detail:   fmt.Sprintf("expected role %s, got %s", factory.Role(), node.Role),
		}
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(factory.Schema()),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return &protocol.ConfigurationError{NodeType: node.NodeType, NodeID: node.ID, Err: protocol.ErrInvalidNodeConfig, Detail: err.Error()}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return &protocol.ConfigurationError{
			NodeType: node.NodeType,
			NodeID:   node.ID,
			Err:      protocol.ErrInvalidNodeConfig,
			Detail:   strings.Join(details, "; "),
		}
	}

	if validator, ok := factory.(protocol.ConfigValidator); ok {
		err := validator.ValidateConfig(config)
		if err != nil {
			return &protocol.ConfigurationError{NodeType: node.NodeType, NodeID: node.ID, Err: protocol.ErrInvalidNodeConfig, Detail: err.Error()}
		}
	}

	return nil
}

// HealthCheck reports whether any node types are registered.
func (r *Registry) HealthCheck() (string, bool) {
	total := len(r.triggerFactories) + len(r.conditionFactories) + len(r.actionFactories)
	if total == 0 {
		return "No node types registered", false
	}

	return fmt.Sprintf("%d node types registered", total), true
}
