package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/instaflow/pkg/channels/gochannel"
	"github.com/dukex/instaflow/pkg/channels/kafka"
	"github.com/dukex/instaflow/pkg/eventbus"
)

// NewEventBus creates the event bus for provider: "gochannel" keeps events
// in process, "kafka" connects to brokers.
func NewEventBus(logger *slog.Logger, provider string, brokers string, serviceName string) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "gochannel", "memory":
		pub, sub := gochannel.CreateChannel(wmLogger, gochannel.DefaultBuffer)

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(brokers), serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}
}
