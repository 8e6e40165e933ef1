// Package main provides the automation API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/storewise/automation/pkg/builder"
	"github.com/storewise/automation/pkg/eventbus"
	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/persistence"
	"github.com/storewise/automation/pkg/registry"
	"github.com/storewise/automation/pkg/services"
	"github.com/storewise/automation/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	builder     *builder.Builder
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: store,
		registry:    reg,
		eventBus:    eventBus,
		builder:     builder.NewBuilder(logger),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterTemplates merges catalog entries into the builder's defaults.
func (a *API) RegisterTemplates(templates []*models.WorkflowTemplate) error {
	for _, tmpl := range templates {
		if err := a.builder.RegisterTemplate(tmpl); err != nil {
			return err
		}
	}

	return nil
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.logger, a.persistence, a.builder, a.eventBus)
	handlers := web.NewAPIHandlers(workflowService, a.builder, a.validate, a.registry, a.eventBus)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Storewise Automation API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/enable", handlers.EnableWorkflow)
	w.Post("/:id/disable", handlers.DisableWorkflow)
	w.Post("/:id/run", handlers.RunWorkflow)

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Get("/:id", handlers.GetTemplate)
	t.Post("/:id/instantiate", handlers.InstantiateTemplate)

	r := app.Group("/registry")
	r.Get("/triggers", handlers.GetTriggerTypes)
	r.Get("/actions", handlers.GetActionTypes)

	app.Post("/webhooks/:event", handlers.ReceiveWebhook)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
