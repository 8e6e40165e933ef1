package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	gochannelch "github.com/storewise/automation/pkg/channels/gochannel"
	kafkach "github.com/storewise/automation/pkg/channels/kafka"
	"github.com/storewise/automation/pkg/eventbus"
)

// NewEventBus creates an event bus backed by the named transport. The
// gochannel provider is in-process only and meant for development.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	pub, sub, err := NewChannel(provider, logger)
	if err != nil {
		return nil, err
	}

	return eventbus.NewWatermillEventBus(pub, sub), nil
}

// NewChannel creates the raw watermill publisher and subscriber for the
// named transport. The change feed uses it directly.
func NewChannel(provider string, logger *slog.Logger) (message.Publisher, message.Subscriber, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafkach.CreateChannel(wmLogger, "automation")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return pub, sub, nil
	case "gochannel":
		pub, sub, err := gochannelch.CreateChannel(wmLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gochannel pub/sub: %w", err)
		}

		return pub, sub, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
