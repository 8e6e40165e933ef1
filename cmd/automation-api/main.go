package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/storewise/automation/pkg/cmd"
	"github.com/storewise/automation/pkg/config"
	"github.com/storewise/automation/pkg/log"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "automation-api",
		Usage:                 "Create and manage automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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
				Name:    "templates-file",
				Usage:   "Optional YAML catalog of additional workflow templates",
				Value:   "",
				Sources: cli.EnvVars("TEMPLATES_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing automation API")

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

			api := NewAPI(logger, store, cmd.NewRegistry(logger), eventBus)

			if path := command.String("templates-file"); path != "" {
				templates, err := config.LoadTemplates(path)
				if err != nil {
					return err
				}

				if err := api.RegisterTemplates(templates); err != nil {
					return err
				}

				logger.InfoContext(ctx, "Loaded template catalog",
					"path", path,
					"templates", len(templates))
			}

			return api.Start(int(command.Int("port")))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
