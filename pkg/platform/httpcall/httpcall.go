// Package httpcall performs the outbound HTTP requests of webhook-call nodes.
package httpcall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukex/instaflow/pkg/platform"
)

type Caller struct {
	logger *slog.Logger
	client *http.Client
}

func NewCaller(logger *slog.Logger, client *http.Client) *Caller {
	if client == nil {
		client = &http.Client{}
	}

	return &Caller{
		logger: logger.With("module", "httpcall"),
		client: client,
	}
}

// Call sends one request. Non-2xx responses are returned as *platform.Failure.
func (c *Caller) Call(ctx context.Context, method, url string, headers map[string]string, body []byte) error {
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, bytes.NewReader(body))
	if err != nil {
		return &platform.Failure{Reason: platform.ReasonInvalidRequest, Message: err.Error()}
	}

	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("webhook call to %s: %w", url, ctx.Err())
		}

		return &platform.Failure{Reason: platform.ReasonNetwork, Message: err.Error(), Temporary: true}
	}

	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason, temporary := platform.StatusReason(resp.StatusCode)

		c.logger.WarnContext(ctx, "Webhook call rejected", "url", url, "status", resp.StatusCode)

		return &platform.Failure{Reason: reason, StatusCode: resp.StatusCode, Temporary: temporary}
	}

	return nil
}
