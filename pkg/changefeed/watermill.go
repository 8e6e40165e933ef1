package changefeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/storewise/automation/pkg/events"
)

// WatermillFeed consumes row-level changes from a watermill subscriber.
// The storefront publishes one JSON-encoded Change per message on the
// changes topic; changes on unwatched tables are acked and dropped.
type WatermillFeed struct {
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewWatermillFeed(subscriber message.Subscriber, logger *slog.Logger) *WatermillFeed {
	return &WatermillFeed{
		subscriber: subscriber,
		logger:     logger.With("module", "changefeed"),
	}
}

// Subscribe consumes the changes topic until the context is cancelled.
// Malformed messages are acked and logged; redelivery cannot fix them.
func (f *WatermillFeed) Subscribe(ctx context.Context, handler Handler) error {
	messages, err := f.subscriber.Subscribe(ctx, events.ChangesTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var change Change

			err := json.Unmarshal(msg.Payload, &change)
			if err != nil {
				f.logger.Warn("Dropping malformed change message",
					"message_id", msg.UUID,
					"error", err)
				msg.Ack()

				continue
			}

			if !slices.Contains(WatchedTables, change.Table) {
				msg.Ack()

				continue
			}

			handler(ctx, change)
			msg.Ack()
		}
	}()

	return nil
}

func (f *WatermillFeed) Close() error {
	return f.subscriber.Close()
}

// PublishChange encodes a change and publishes it on the changes topic.
// The engine uses it in tests and local development; in production the
// storefront's outbox publishes directly to Kafka.
func PublishChange(publisher message.Publisher, id string, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	return publisher.Publish(events.ChangesTopic, message.NewMessage(id, payload))
}
