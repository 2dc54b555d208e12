// Package main provides the InstaFlow API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/instaflow/pkg/metrics"
	"github.com/dukex/instaflow/pkg/registry"
	"github.com/dukex/instaflow/pkg/services"
	"github.com/dukex/instaflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	logger      *slog.Logger
	flowService *services.Flow
	engine      web.Engine
	registry    *registry.Registry
	validate    *validator.Validate
	options     []web.Option
}

func NewAPI(
	logger *slog.Logger,
	flowService *services.Flow,
	engine web.Engine,
	registry *registry.Registry,
	options ...web.Option,
) *API {
	return &API{
		logger:      logger,
		flowService: flowService,
		engine:      engine,
		registry:    registry,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		options:     options,
	}
}

func (a *API) App() *fiber.App {
	metrics.Init()

	handlers := web.NewAPIHandlers(a.logger, a.flowService, a.engine, a.registry, a.validate, a.options...)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("InstaFlow API")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.Register(app)

	return app
}

// Start serves until ctx is done, then stops accepting requests and waits for
// open ones within the shutdown context.
func (a *API) Start(ctx context.Context, shutdown func() (context.Context, context.CancelFunc), port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := shutdown()
		defer cancel()

		a.logger.Info("Shutting down API server")

		err := app.ShutdownWithContext(shutdownCtx)
		if err != nil {
			a.logger.Error("Failed to shut down API server", "error", err)
		}
	}()

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
