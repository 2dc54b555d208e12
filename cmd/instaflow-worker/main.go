package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/instaflow/pkg/cmd"
	"github.com/dukex/instaflow/pkg/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "instaflow-worker"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.WithModule("worker").Debug("No .env file found")
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "worker-id",
			Aliases: []string{"id"},
			Usage:   "Custom worker ID (auto-generated if not provided)",
			Sources: cli.EnvVars("WORKER_ID"),
		},
	}

	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Execute automation flows for webhooks published on the event bus",
		EnableShellCompletion: true,
		Flags:                 append(flags, cmd.RuntimeFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-file"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("instaflow-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing InstaFlow Worker")

			return run(ctx, logger, workerID, command)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = command.Run(ctx, os.Args)
	if err != nil {
		log.WithModule("worker").Error("InstaFlow Worker stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
