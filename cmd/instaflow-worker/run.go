package main

import (
	"context"
	"log/slog"

	"github.com/dukex/instaflow/pkg/cmd"
	"github.com/dukex/instaflow/pkg/eventbus"
	"github.com/dukex/instaflow/pkg/worker"
	cli "github.com/urfave/cli/v3"
)

// run consumes webhooks and fires scheduled flows until ctx is done, then
// drains in-flight executions.
func run(ctx context.Context, logger *slog.Logger, workerID string, command *cli.Command) error {
	eventBus, err := cmd.NewEventBus(logger, command.String("event-bus"), command.String("kafka-brokers"), serviceName)
	if err != nil {
		return err
	}

	defer func() {
		err := eventBus.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if command.String("event-bus") != "kafka" {
		logger.WarnContext(ctx, "In-process event bus only carries events published by this process")
	}

	runtime, err := cmd.NewRuntime(ctx, logger, cmd.RuntimeConfigFrom(command, serviceName), eventbus.NewExecutionNotifier(eventBus))
	if err != nil {
		return err
	}

	err = runtime.Start(ctx)
	if err != nil {
		return err
	}

	err = worker.New(workerID, logger, runtime.Engine, eventBus).Start(ctx)
	if err != nil {
		return err
	}

	<-ctx.Done()

	logger.Info("Shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cmd.DefaultShutdownTimeout)
	defer cancel()

	return runtime.Shutdown(shutdownCtx)
}
