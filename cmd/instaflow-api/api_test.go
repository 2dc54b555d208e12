package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukex/instaflow/pkg/cmd"
	"github.com/dukex/instaflow/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	runtime, err := cmd.NewRuntime(context.Background(), logger, cmd.RuntimeConfig{
		ServiceName:     serviceName,
		DatabaseURL:     "file://" + filepath.Join(t.TempDir(), "flows"),
		ExecutionLogURL: "memory://",
		Platform:        cmd.PlatformConfig{Name: "dry-run", Timeout: time.Second},
	}, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = runtime.Shutdown(context.Background()) })

	api := NewAPI(logger, runtime.Flows, runtime.Engine, runtime.Registry, web.WithVerifyToken("token"))

	return api.App()
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	resp, body := get(t, setupTestApp(t), "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "InstaFlow API", body)
}

func TestAPI_Probes(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz", "/health"} {
		resp, _ := get(t, app, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAPI_Metrics(t *testing.T) {
	resp, body := get(t, setupTestApp(t), "/metrics")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestAPI_RoutesAreMounted(t *testing.T) {
	app := setupTestApp(t)

	resp, body := get(t, app, "/flows")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)

	resp, body = get(t, app, "/webhook/instagram?hub.mode=subscribe&hub.verify_token=token&hub.challenge=42")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42", body)
}
