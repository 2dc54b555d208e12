// Package userfilter provides the user-filter condition node.
package userfilter

import (
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
)

type UserFilterFactory struct{}

func (f *UserFilterFactory) Create(config map[string]any) (protocol.Condition, error) {
	return NewUserFilter(config), nil
}

func (f *UserFilterFactory) ID() string {
	return "user-filter"
}

func (f *UserFilterFactory) Name() string {
	return "User Filter"
}

func (f *UserFilterFactory) Description() string {
	return "Allow or block events from specific users, matched by user id or username."
}

func (f *UserFilterFactory) Role() models.NodeRole {
	return models.NodeRoleCondition
}

func (f *UserFilterFactory) Schema() map[string]any {
	list := map[string]any{
		"oneOf": []map[string]any{
			{"type": "array", "items": map[string]any{"type": "string"}},
			{"type": "string"},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"include_users": list,
			"exclude_users": list,
		},
		"examples": []map[string]any{
			{"exclude_users": []string{"@competitor", "17841400000000000"}},
		},
	}
}

func NewUserFilterFactory() protocol.ConditionFactory {
	return &UserFilterFactory{}
}
