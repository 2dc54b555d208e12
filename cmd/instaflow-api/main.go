package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/instaflow/pkg/cmd"
	"github.com/dukex/instaflow/pkg/eventbus"
	"github.com/dukex/instaflow/pkg/log"
	"github.com/dukex/instaflow/pkg/web"
	"github.com/dukex/instaflow/pkg/worker"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const (
	serviceName = "instaflow-api"
	defaultPort = 9091
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.WithModule("api").Debug("No .env file found")
	}

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "verify-token",
			Usage:   "Token expected by the webhook subscription handshake",
			Sources: cli.EnvVars("VERIFY_TOKEN"),
		},
		&cli.BoolFlag{
			Name:    "async",
			Usage:   "Acknowledge webhooks immediately and process them from the event bus",
			Sources: cli.EnvVars("ASYNC_WEBHOOKS"),
		},
	}

	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Receive Instagram webhooks and manage automation flows",
		EnableShellCompletion: true,
		Flags:                 append(flags, cmd.RuntimeFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-file"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing InstaFlow API")

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

			async := command.Bool("async")
			inProcess := command.String("event-bus") != "kafka"

			config := cmd.RuntimeConfigFrom(command, serviceName)
			if async && !inProcess {
				// The worker owns the schedule when webhooks leave the process.
				config.Scheduler = false
			}

			runtime, err := cmd.NewRuntime(ctx, logger, config, eventbus.NewExecutionNotifier(eventBus))
			if err != nil {
				return err
			}

			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cmd.DefaultShutdownTimeout)
				defer cancel()

				err := runtime.Shutdown(shutdownCtx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to shut down runtime", "error", err)
				}
			}()

			err = runtime.Start(ctx)
			if err != nil {
				return err
			}

			options := []web.Option{web.WithVerifyToken(command.String("verify-token"))}

			if async {
				options = append(options, web.WithAsyncDelivery(eventBus))

				if inProcess {
					err = worker.New(serviceName, logger, runtime.Engine, eventBus).Start(ctx)
					if err != nil {
						return err
					}
				}
			}

			api := NewAPI(logger, runtime.Flows, runtime.Engine, runtime.Registry, options...)

			return api.Start(ctx, func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.WithoutCancel(ctx), cmd.DefaultShutdownTimeout)
			}, int(command.Int("port")))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = command.Run(ctx, os.Args)
	if err != nil {
		log.WithModule("api").Error("InstaFlow API stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
