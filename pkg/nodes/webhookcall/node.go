package webhookcall

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/dukex/instaflow/pkg/nodes/nodeconfig"
	"github.com/dukex/instaflow/pkg/protocol"
	"github.com/dukex/instaflow/pkg/template"
)

// WebhookCall resolves to a call_webhook request.
type WebhookCall struct {
	url     string
	method  string
	headers map[string]string
	body    string
}

func NewWebhookCall(config map[string]any) (*WebhookCall, error) {
	url := nodeconfig.String(config, "url")
	if url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	method := strings.ToUpper(nodeconfig.String(config, "method"))
	if method == "" {
		method = http.MethodPost
	}

	return &WebhookCall{
		url:     url,
		method:  method,
		headers: nodeconfig.StringMap(config, "headers"),
		body:    nodeconfig.String(config, "body"),
	}, nil
}

func (w *WebhookCall) Capability() protocol.Capability {
	return protocol.CapabilityCallWebhook
}

func (w *WebhookCall) Request(execCtx *models.ExecutionContext) (protocol.ActionRequest, error) {
	url, err := template.RenderWithContext(w.url, execCtx)
	if err != nil {
		return protocol.ActionRequest{}, fmt.Errorf("failed to render url: %w", err)
	}

	var body []byte

	if w.body != "" {
		rendered, err := template.RenderWithContext(w.body, execCtx)
		if err != nil {
			return protocol.ActionRequest{}, fmt.Errorf("failed to render body: %w", err)
		}

		body = []byte(rendered)
	} else {
		body, err = json.Marshal(map[string]any{
			"flow_id":      execCtx.FlowID,
			"flow_name":    execCtx.FlowName,
			"execution_id": execCtx.ID,
			"event":        execCtx.Event,
			"variables":    execCtx.Variables,
		})
		if err != nil {
			return protocol.ActionRequest{}, fmt.Errorf("failed to encode event: %w", err)
		}
	}

	headers := make(map[string]string, len(w.headers)+1)
	headers["Content-Type"] = "application/json"

	for key, value := range w.headers {
		headers[key] = value
	}

	return protocol.ActionRequest{
		Capability: protocol.CapabilityCallWebhook,
		URL:        url,
		Method:     w.method,
		Headers:    headers,
		Body:       body,
	}, nil
}
