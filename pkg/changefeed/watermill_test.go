package changefeed

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storewise/automation/pkg/channels/gochannel"
)

func TestWatermillFeed_DeliversWatchedChanges(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	feed := NewWatermillFeed(sub, logger)
	defer feed.Close()

	var (
		mu       sync.Mutex
		received []Change
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = feed.Subscribe(ctx, func(_ context.Context, change Change) {
		mu.Lock()
		defer mu.Unlock()

		received = append(received, change)
	})
	require.NoError(t, err)

	require.NoError(t, PublishChange(pub, "chg-1", Change{
		Table:     "orders",
		EventType: "INSERT",
		NewRecord: map[string]any{"id": "ord-1"},
	}))

	// Changes on unwatched tables are dropped silently.
	require.NoError(t, PublishChange(pub, "chg-2", Change{
		Table:     "audit_log",
		EventType: "INSERT",
	}))

	require.NoError(t, PublishChange(pub, "chg-3", Change{
		Table:     "inventory",
		EventType: "UPDATE",
		NewRecord: map[string]any{"sku": "A-1", "quantity": float64(2)},
		OldRecord: map[string]any{"sku": "A-1", "quantity": float64(5)},
	}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(received) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, "orders", received[0].Table)
	assert.Equal(t, "INSERT", received[0].EventType)
	assert.Equal(t, "inventory", received[1].Table)
	assert.Equal(t, map[string]any{"sku": "A-1", "quantity": float64(5)}, received[1].OldRecord)
}
