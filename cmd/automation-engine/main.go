package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/storewise/automation/pkg/changefeed"
	"github.com/storewise/automation/pkg/cmd"
	"github.com/storewise/automation/pkg/log"
	"github.com/storewise/automation/pkg/otelhelper"
	"github.com/storewise/automation/pkg/trigger"
)

func main() {
	command := &cli.Command{
		Name:                  "automation-engine",
		Usage:                 "Start the automation trigger engine",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "engine-id",
				Aliases: []string{"id"},
				Usage:   "Custom engine ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("ENGINE_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "metrics-url",
				Usage:   "Metric source URL for threshold triggers (redis:// or postgres://)",
				Value:   "",
				Sources: cli.EnvVars("METRICS_URL"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Threshold trigger polling interval",
				Value:   time.Minute,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	engineID := command.String("engine-id")
	if engineID == "" {
		engineID = fmt.Sprintf("engine-%s", uuid.New().String()[:8])
	}

	logger := log.WithModule("automation-engine").With("engine_id", engineID)
	logger.InfoContext(ctx, "Initializing automation engine")

	tracer, err := otelhelper.NewTracer(ctx, "automation-engine")
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	// The change feed needs its own subscriber so the changes topic and
	// the events topic consume independently.
	_, changeSub, err := cmd.NewChannel(command.String("event-bus"), logger)
	if err != nil {
		return err
	}

	feed := changefeed.NewWatermillFeed(changeSub, logger)

	defer func() {
		if err := feed.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close change feed", "error", err)
		}
	}()

	source, err := cmd.NewMetricSource(ctx, logger, command.String("metrics-url"), store)
	if err != nil {
		return err
	}

	defer func() {
		if closer, ok := source.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close metric source", "error", err)
			}
		}
	}()

	manager := trigger.NewManager(logger, source,
		trigger.WithPollInterval(command.Duration("poll-interval")),
		trigger.WithTracer(tracer),
	)

	engine := NewEngine(engineID, store, eventBus, feed, manager, logger)
	engine.Start(ctx)

	return nil
}
