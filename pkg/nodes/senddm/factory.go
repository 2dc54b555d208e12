// Package senddm provides the send-dm action node.
package senddm

import (
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
)

type SendDMFactory struct{}

func (f *SendDMFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewSendDM(config)
}

func (f *SendDMFactory) ID() string {
	return "send-dm"
}

func (f *SendDMFactory) Name() string {
	return "Send DM"
}

func (f *SendDMFactory) Description() string {
	return "Send a direct message, by default to the user who triggered the flow."
}

func (f *SendDMFactory) Role() models.NodeRole {
	return models.NodeRoleAction
}

func (f *SendDMFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Message text. Supports templates such as {{ .event.source_username }}",
			},
			"recipient": map[string]any{
				"type":        "string",
				"description": "Recipient id override. Defaults to the event source user",
			},
		},
		"required": []string{"template"},
		"examples": []map[string]any{
			{"template": "Thanks for reaching out! Our price list: https://example.com/prices"},
		},
	}
}

func NewSendDMFactory() protocol.ActionFactory {
	return &SendDMFactory{}
}
