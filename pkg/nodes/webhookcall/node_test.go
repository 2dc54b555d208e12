package webhookcall

import (
	"encoding/json"
	"testing"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCtx() *models.ExecutionContext {
	return models.NewExecutionContext("exec-1", &models.AutomationFlow{ID: "f1", Name: "Forward"}, models.TriggerEvent{
		Kind:         models.EventKindNewMessage,
		SourceUserID: "u1",
		Text:         "hello",
	})
}

func TestWebhookCall_DefaultBody(t *testing.T) {
	action, err := NewWebhookCall(map[string]any{
		"url":     "https://hooks.example.com/{{ .flow.id }}",
		"headers": map[string]any{"X-Token": "secret"},
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.CapabilityCallWebhook, action.Capability())

	req, err := action.Request(execCtx())
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/f1", req.URL)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "secret", req.Headers["X-Token"])
	assert.Equal(t, "application/json", req.Headers["Content-Type"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "f1", body["flow_id"])
	assert.Equal(t, "exec-1", body["execution_id"])
	assert.Equal(t, "hello", body["event"].(map[string]any)["text"])
}

func TestWebhookCall_BodyTemplate(t *testing.T) {
	action, err := NewWebhookCall(map[string]any{
		"url":    "https://hooks.example.com",
		"method": "put",
		"body":   `{"user": "{{ .event.source_user_id }}"}`,
	})
	require.NoError(t, err)

	req, err := action.Request(execCtx())
	require.NoError(t, err)
	assert.Equal(t, "PUT", req.Method)
	assert.JSONEq(t, `{"user": "u1"}`, string(req.Body))
}

func TestNewWebhookCall_RequiresURL(t *testing.T) {
	_, err := NewWebhookCall(map[string]any{"method": "POST"})
	assert.Error(t, err)
}
