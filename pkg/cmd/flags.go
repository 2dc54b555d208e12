package cmd

import (
	"time"

	"github.com/dukex/instaflow/pkg/dispatcher"
	"github.com/dukex/instaflow/pkg/engine"
	"github.com/dukex/instaflow/pkg/executionlog"
	"github.com/dukex/instaflow/pkg/platform/instagram"
	cli "github.com/urfave/cli/v3"
)

// EnvironmentDevelopment makes configuration errors panic.
const EnvironmentDevelopment = "development"

// RuntimeFlags are shared by every binary that runs the engine.
func RuntimeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Flow store URL (file://path or postgres://...)",
			Value:   "file://./data/flows",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "execution-log-url",
			Usage:   "Execution log URL (memory://, redis://... or postgres://...)",
			Value:   "memory://",
			Sources: cli.EnvVars("EXECUTION_LOG_URL"),
		},
		&cli.IntFlag{
			Name:    "execution-log-cap",
			Usage:   "Number of execution records kept, oldest evicted first",
			Value:   executionlog.DefaultCapacity,
			Sources: cli.EnvVars("EXECUTION_LOG_CAP"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "environment",
			Usage:   "Runtime environment (development, production)",
			Value:   "production",
			Sources: cli.EnvVars("ENVIRONMENT"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "Also write logs to this rotated file",
			Sources: cli.EnvVars("LOG_FILE"),
		},
		&cli.StringFlag{
			Name:    "platform",
			Usage:   "Platform client (instagram, dry-run)",
			Value:   "instagram",
			Sources: cli.EnvVars("PLATFORM"),
		},
		&cli.StringFlag{
			Name:    "graph-api-url",
			Usage:   "Graph API base URL",
			Value:   instagram.DefaultBaseURL,
			Sources: cli.EnvVars("GRAPH_API_URL"),
		},
		&cli.StringFlag{
			Name:    "access-token",
			Usage:   "Page access token used for platform calls",
			Sources: cli.EnvVars("ACCESS_TOKEN"),
		},
		&cli.DurationFlag{
			Name:    "dispatch-timeout",
			Usage:   "Timeout of each action call",
			Value:   dispatcher.DefaultTimeout,
			Sources: cli.EnvVars("DISPATCH_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:    "max-concurrent-flows",
			Usage:   "Flows executed at once for one event",
			Value:   engine.DefaultMaxConcurrentFlows,
			Sources: cli.EnvVars("MAX_CONCURRENT_FLOWS"),
		},
		&cli.DurationFlag{
			Name:    "flow-cache-ttl",
			Usage:   "Cache active flows for this long (0 disables)",
			Value:   0,
			Sources: cli.EnvVars("FLOW_CACHE_TTL"),
		},
		&cli.BoolFlag{
			Name:    "scheduler",
			Usage:   "Run flows with a schedule trigger",
			Value:   true,
			Sources: cli.EnvVars("SCHEDULER_ENABLED"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// RuntimeConfigFrom reads RuntimeFlags from command.
func RuntimeConfigFrom(command *cli.Command, serviceName string) RuntimeConfig {
	return RuntimeConfig{
		ServiceName:        serviceName,
		DatabaseURL:        command.String("database-url"),
		ExecutionLogURL:    command.String("execution-log-url"),
		ExecutionLogCap:    int(command.Int("execution-log-cap")),
		FlowCacheTTL:       command.Duration("flow-cache-ttl"),
		MaxConcurrentFlows: int(command.Int("max-concurrent-flows")),
		Environment:        command.String("environment"),
		Scheduler:          command.Bool("scheduler"),
		Tracing:            command.Bool("otel"),
		Platform: PlatformConfig{
			Name:        command.String("platform"),
			GraphAPIURL: command.String("graph-api-url"),
			AccessToken: command.String("access-token"),
			Timeout:     command.Duration("dispatch-timeout"),
			Strict:      command.String("environment") == EnvironmentDevelopment,
		},
	}
}

// DefaultShutdownTimeout bounds how long in-flight executions may drain.
const DefaultShutdownTimeout = 30 * time.Second
