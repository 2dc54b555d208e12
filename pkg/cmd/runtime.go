package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/instaflow/pkg/engine"
	"github.com/dukex/instaflow/pkg/executionlog"
	"github.com/dukex/instaflow/pkg/otelhelper"
	"github.com/dukex/instaflow/pkg/persistence"
	"github.com/dukex/instaflow/pkg/registry"
	"github.com/dukex/instaflow/pkg/scheduler"
	"github.com/dukex/instaflow/pkg/services"
)

// RuntimeConfig holds everything needed to assemble an engine.
type RuntimeConfig struct {
	ServiceName        string
	DatabaseURL        string
	ExecutionLogURL    string
	ExecutionLogCap    int
	FlowCacheTTL       time.Duration
	MaxConcurrentFlows int
	Environment        string
	Scheduler          bool
	Tracing            bool
	Platform           PlatformConfig
}

// Runtime is the assembled engine and the resources it owns.
type Runtime struct {
	logger      *slog.Logger
	Registry    *registry.Registry
	Persistence persistence.Persistence
	Log         *executionlog.Log
	Engine      *engine.Engine
	Flows       *services.Flow
	Scheduler   *scheduler.Scheduler

	shutdownTracing otelhelper.ShutdownFunc
}

// NewRuntime wires the registry, the flow store, the execution log, the
// dispatcher and the engine. notifier may be nil. The scheduler is created
// but not started.
func NewRuntime(ctx context.Context, logger *slog.Logger, config RuntimeConfig, notifier engine.Notifier) (*Runtime, error) {
	reg := NewRegistry(logger)

	store, err := NewPersistence(ctx, logger, config.DatabaseURL, config.FlowCacheTTL)
	if err != nil {
		return nil, err
	}

	executionLog, err := NewExecutionLog(ctx, logger, config.ExecutionLogURL, config.ExecutionLogCap)
	if err != nil {
		_ = store.Close(ctx)

		return nil, err
	}

	actions, err := NewDispatcher(logger, config.Platform)
	if err != nil {
		_ = store.Close(ctx)
		_ = executionLog.Close()

		return nil, err
	}

	opts := []engine.Option{
		engine.WithStrict(config.Environment == EnvironmentDevelopment),
		engine.WithMaxConcurrentFlows(config.MaxConcurrentFlows),
	}

	if config.ExecutionLogCap > 0 {
		opts = append(opts, engine.WithLogCapacity(config.ExecutionLogCap))
	}

	if notifier != nil {
		opts = append(opts, engine.WithNotifier(notifier))
	}

	var shutdownTracing otelhelper.ShutdownFunc

	if config.Tracing {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, config.ServiceName)
		if err != nil {
			logger.WarnContext(ctx, "Tracing disabled", "error", err)
		} else {
			opts = append(opts, engine.WithTracer(tracer))
			shutdownTracing = shutdown
		}
	}

	eng := engine.New(logger, store, reg, actions, executionLog, opts...)

	runtime := &Runtime{
		logger:      logger,
		Registry:    reg,
		Persistence: store,
		Log:         executionLog,
		Engine:      eng,
		Flows:       services.NewFlow(store, reg),

		shutdownTracing: shutdownTracing,
	}

	if config.Scheduler {
		runtime.Scheduler = scheduler.New(logger, store, eng)
	}

	return runtime, nil
}

// Start starts the scheduler when enabled.
func (r *Runtime) Start(ctx context.Context) error {
	if r.Scheduler == nil {
		return nil
	}

	return r.Scheduler.Start(ctx)
}

// Shutdown stops scheduling, drains in-flight executions and closes the
// stores. It returns the first error encountered but always closes everything.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.Scheduler != nil {
		err := r.Scheduler.Stop(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop scheduler: %w", err))
		}
	}

	err := r.Engine.Shutdown(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to drain engine: %w", err))
	}

	err = r.Log.Close()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to close execution log: %w", err))
	}

	err = r.Persistence.Close(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to close persistence: %w", err))
	}

	if r.shutdownTracing != nil {
		err = r.shutdownTracing(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
	}

	if len(errs) > 0 {
		r.logger.ErrorContext(ctx, "Runtime shutdown finished with errors", "errors", len(errs))
	}

	return errors.Join(errs...)
}
