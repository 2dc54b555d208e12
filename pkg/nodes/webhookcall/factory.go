// Package webhookcall provides the webhook-call action node.
package webhookcall

import (
	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
)

type WebhookCallFactory struct{}

func (f *WebhookCallFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewWebhookCall(config)
}

func (f *WebhookCallFactory) ID() string {
	return "webhook-call"
}

func (f *WebhookCallFactory) Name() string {
	return "Webhook Call"
}

func (f *WebhookCallFactory) Description() string {
	return "Forward the event to an external HTTP endpoint such as an n8n or Zapier webhook."
}

func (f *WebhookCallFactory) Role() models.NodeRole {
	return models.NodeRoleAction
}

func (f *WebhookCallFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Endpoint URL. Supports templates",
			},
			"method": map[string]any{
				"type":    "string",
				"enum":    []string{"POST", "PUT", "PATCH"},
				"default": "POST",
			},
			"headers": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Body template. Defaults to a JSON document with the flow, execution and event",
			},
		},
		"required": []string{"url"},
		"examples": []map[string]any{
			{"url": "https://n8n.example.com/webhook/instagram", "headers": map[string]string{"X-Token": "secret"}},
		},
	}
}

func NewWebhookCallFactory() protocol.ActionFactory {
	return &WebhookCallFactory{}
}
