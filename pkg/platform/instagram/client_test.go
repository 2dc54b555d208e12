package instagram_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/instaflow/pkg/platform"
	"github.com/dukex/instaflow/pkg/platform/instagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.HandlerFunc) *instagram.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return instagram.NewClient(logger, server.URL, instagram.StaticToken("token-1"), instagram.WithRetry(3, time.Millisecond))
}

func TestClient_SendMessage(t *testing.T) {
	var body map[string]any

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "token-1", r.URL.Query().Get("access_token"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		_, _ = w.Write([]byte(`{"recipient_id": "u1", "message_id": "m1"}`))
	})

	err := client.SendMessage(context.Background(), "u1", "Price is $10")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"id": "u1"}, body["recipient"])
	assert.Equal(t, map[string]any{"text": "Price is $10"}, body["message"])
}

func TestClient_ReplyToComment(t *testing.T) {
	var body map[string]any

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c-17/replies", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		_, _ = w.Write([]byte(`{"id": "reply-1"}`))
	})

	err := client.ReplyToComment(context.Background(), "c-17", "Thanks!")
	require.NoError(t, err)
	assert.Equal(t, "Thanks!", body["message"])
}

func TestClient_ClassifiesGraphErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "throttled status", status: http.StatusTooManyRequests, body: `{}`, expected: platform.ReasonRateLimited},
		{name: "app rate limit code", status: http.StatusBadRequest, body: `{"error": {"message": "limit", "code": 4}}`, expected: platform.ReasonRateLimited},
		{name: "page rate limit code", status: http.StatusBadRequest, body: `{"error": {"message": "limit", "code": 613}}`, expected: platform.ReasonRateLimited},
		{name: "expired token", status: http.StatusBadRequest, body: `{"error": {"message": "expired", "code": 190}}`, expected: platform.ReasonInvalidToken},
		{name: "missing permission", status: http.StatusForbidden, body: `{"error": {"message": "nope", "code": 200}}`, expected: platform.ReasonPermissionDenied},
		{name: "user unavailable", status: http.StatusBadRequest, body: `{"error": {"message": "blocked", "code": 551}}`, expected: platform.ReasonUserBlocked},
		{name: "bad parameter", status: http.StatusBadRequest, body: `{"error": {"message": "bad", "code": 100}}`, expected: platform.ReasonInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32

			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.SendMessage(context.Background(), "u1", "hi")
			require.Error(t, err)

			reason, ok := platform.ReasonOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, reason)
			assert.Equal(t, int32(1), calls.Load(), "permanent failures are not retried")
		})
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		_, _ = w.Write([]byte(`{"id": "ok"}`))
	})

	err := client.ReplyToComment(context.Background(), "c1", "hello")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32

	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.SendMessage(context.Background(), "u1", "hi")
	require.Error(t, err)

	reason, _ := platform.ReasonOf(err)
	assert.Equal(t, platform.ReasonUnavailable, reason)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotResendAfterConnectionDrop(t *testing.T) {
	var calls atomic.Int32

	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)

		conn, _, err := http.NewResponseController(w).Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	})

	err := client.SendMessage(context.Background(), "u1", "hi")
	require.Error(t, err)

	reason, _ := platform.ReasonOf(err)
	assert.Equal(t, platform.ReasonNetwork, reason)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesDialFailures(t *testing.T) {
	var dials atomic.Int32

	httpClient := &http.Client{Transport: &http.Transport{
		DialContext: func(_ context.Context, network, _ string) (net.Conn, error) {
			dials.Add(1)

			return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
		},
	}}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := instagram.NewClient(logger, "http://graph.invalid", instagram.StaticToken("token-1"),
		instagram.WithHTTPClient(httpClient), instagram.WithRetry(3, time.Millisecond))

	err := client.SendMessage(context.Background(), "u1", "hi")
	require.Error(t, err)

	reason, _ := platform.ReasonOf(err)
	assert.Equal(t, platform.ReasonNetwork, reason)
	assert.Equal(t, int32(3), dials.Load())
}

func TestStaticToken_Empty(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := instagram.NewClient(logger, "http://127.0.0.1:1", instagram.StaticToken(""))

	err := client.SendMessage(context.Background(), "u1", "hi")

	reason, ok := platform.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, platform.ReasonInvalidToken, reason)
}
