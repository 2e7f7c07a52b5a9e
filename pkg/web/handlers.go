// Package web provides the REST API for policy, workflow and timer
// management.
package web

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/policy"
	"github.com/caredesk/slaflow/pkg/registry"
	"github.com/caredesk/slaflow/pkg/sla"
	"github.com/caredesk/slaflow/pkg/workflow"
)

type APIHandlers struct {
	policies  *policy.Service
	workflows *workflow.Repository
	manager   *sla.Manager
	store     persistence.Persistence
	registry  *registry.Registry
	validator *validator.Validate
}

func NewAPIHandlers(
	policies *policy.Service,
	workflows *workflow.Repository,
	manager *sla.Manager,
	store persistence.Persistence,
	reg *registry.Registry,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		policies:  policies,
		workflows: workflows,
		manager:   manager,
		store:     store,
		registry:  reg,
		validator: validate,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK
	storeCheck := "ok"

	if err := h.store.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
		storeCheck = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"persistence": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Policies

func (h *APIHandlers) GetPolicies(c fiber.Ctx) error {
	policies, err := h.policies.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(policies)
}

func (h *APIHandlers) GetPolicy(c fiber.Ctx) error {
	found, err := h.policies.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) CreatePolicy(c fiber.Ctx) error {
	var req CreatePolicyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.policies.Create(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdatePolicy(c fiber.Ctx) error {
	var req CreatePolicyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.policies.Update(c.Context(), c.Params("id"), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePolicy(c fiber.Ctx) error {
	if err := h.policies.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Workflows

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflows.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	found, err := h.workflows.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflows.Create(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflows.Update(c.Context(), c.Params("id"), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflows.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetNodeTypes lists the registered node types with their config
// schemas, for the workflow editor.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	types := h.registry.AvailableNodes()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	infos := make([]NodeTypeInfo, 0, len(types))

	for _, nodeType := range types {
		factory, ok := h.registry.NodeFactory(nodeType)
		if !ok {
			continue
		}

		infos = append(infos, NodeTypeInfo{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(infos)
}

// Timers

func (h *APIHandlers) StartTimers(c fiber.Ctx) error {
	var req StartTimersRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.manager.Start(c.Context(), sla.StartRequest{
		TicketID:     req.TicketID,
		Priority:     req.Priority,
		DepartmentID: req.DepartmentID,
		CategoryID:   req.CategoryID,
		PolicyID:     req.PolicyID,
	})
	if err != nil {
		return internalError(c, err)
	}

	status := fiber.StatusCreated
	if !result.Started {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(result)
}

func (h *APIHandlers) PauseTimers(c fiber.Ctx) error {
	var req PauseTimersRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	paused, err := h.manager.Pause(c.Context(), c.Params("ticketId"), req.Reason)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"paused": paused})
}

func (h *APIHandlers) ResumeTimers(c fiber.Ctx) error {
	resumed, err := h.manager.Resume(c.Context(), c.Params("ticketId"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"resumed": resumed})
}

func (h *APIHandlers) StopTimers(c fiber.Ctx) error {
	var req StopTimersRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	stopped, err := h.manager.Stop(c.Context(), c.Params("ticketId"), req.Types...)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"stopped": stopped})
}

func (h *APIHandlers) GetTimers(c fiber.Ctx) error {
	timers, err := h.store.Timers().ByTicket(c.Context(), c.Params("ticketId"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(timers)
}

func (h *APIHandlers) GetBreaches(c fiber.Ctx) error {
	breaches, err := h.store.Breaches().ByTicket(c.Context(), c.Params("ticketId"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(breaches)
}

func (h *APIHandlers) GetEscalations(c fiber.Ctx) error {
	escalations, err := h.store.Escalations().ByTicket(c.Context(), c.Params("ticketId"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(escalations)
}
