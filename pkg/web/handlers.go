// Package web provides the REST handlers for workflow management.
package web

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/storewise/automation/pkg/builder"
	"github.com/storewise/automation/pkg/eventbus"
	"github.com/storewise/automation/pkg/events"
	"github.com/storewise/automation/pkg/registry"
	"github.com/storewise/automation/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	builder         *builder.Builder
	validator       *validator.Validate
	registry        *registry.Registry
	publisher       eventbus.EventPublisher
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	wb *builder.Builder,
	validate *validator.Validate,
	reg *registry.Registry,
	publisher eventbus.EventPublisher,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		builder:         wb,
		validator:       validate,
		registry:        reg,
		publisher:       publisher,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), c.Query("store_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req services.CreateRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	workflow, err := h.workflowService.Create(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req services.UpdateRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	workflow, err := h.workflowService.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) EnableWorkflow(c fiber.Ctx) error {
	return h.setEnabled(c, true)
}

func (h *APIHandlers) DisableWorkflow(c fiber.Ctx) error {
	return h.setEnabled(c, false)
}

func (h *APIHandlers) setEnabled(c fiber.Ctx, enabled bool) error {
	workflow, err := h.workflowService.SetEnabled(c.Context(), c.Params("id"), enabled)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

type runRequest struct {
	Data map[string]any `json:"data"`
}

func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	var req runRequest

	if len(c.Body()) > 0 {
		err := c.Bind().JSON(&req)
		if err != nil {
			return badRequest(c, "Invalid request body: "+err.Error())
		}
	}

	err := h.workflowService.ManualRun(c.Context(), c.Params("id"), req.Data)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"templates": h.builder.Templates()})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	tmpl, ok := h.builder.Template(c.Params("id"))
	if !ok {
		return notFound(c, "Template not found")
	}

	return c.JSON(tmpl)
}

type instantiateRequest struct {
	StoreID   string         `json:"store_id" validate:"required"`
	Variables map[string]any `json:"variables"`
}

func (h *APIHandlers) InstantiateTemplate(c fiber.Ctx) error {
	var req instantiateRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	workflow, err := h.workflowService.CreateFromTemplate(c.Context(), c.Params("id"), req.StoreID, req.Variables)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

// ReceiveWebhook accepts an inbound external event and forwards it to the
// engine over the event bus. Delivery to workflows is asynchronous.
func (h *APIHandlers) ReceiveWebhook(c fiber.Ctx) error {
	eventName := c.Params("event")
	if eventName == "" {
		return badRequest(c, "Event name is required")
	}

	payload := map[string]any{}

	if len(c.Body()) > 0 {
		err := c.Bind().JSON(&payload)
		if err != nil {
			return badRequest(c, "Invalid JSON payload: "+err.Error())
		}
	}

	event := events.ExternalEventReceived{
		BaseEvent: events.NewBaseEvent(events.ExternalEventReceivedEvent, ""),
		EventName: eventName,
		Payload:   payload,
	}

	err := h.publisher.Publish(c.Context(), eventName, event)
	if err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) GetTriggerTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"triggers": h.registry.Triggers()})
}

func (h *APIHandlers) GetActionTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"actions": h.registry.Actions()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, ok := h.workflowService.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if !ok {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"details": message,
	})
}
