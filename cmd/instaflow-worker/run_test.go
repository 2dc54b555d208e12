package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/instaflow/pkg/cmd"
	"github.com/stretchr/testify/assert"
	cli "github.com/urfave/cli/v3"
)

func TestRun_StopsWhenContextIsDone(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	command := &cli.Command{
		Name:  serviceName,
		Flags: cmd.RuntimeFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			return run(ctx, logger, "worker-test", command)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := command.Run(ctx, []string{
		serviceName,
		"--platform", "dry-run",
		"--database-url", "file://" + filepath.Join(t.TempDir(), "flows"),
		"--execution-log-url", "memory://",
		"--event-bus", "gochannel",
	})

	assert.NoError(t, err)
}

func TestRun_FailsOnUnknownEventBus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	command := &cli.Command{
		Name:  serviceName,
		Flags: cmd.RuntimeFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			return run(ctx, logger, "worker-test", command)
		},
	}

	err := command.Run(context.Background(), []string{serviceName, "--event-bus", "rabbitmq"})

	assert.Error(t, err)
}
