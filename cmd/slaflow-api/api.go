// Package main provides the Slaflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/policy"
	"github.com/caredesk/slaflow/pkg/registry"
	"github.com/caredesk/slaflow/pkg/sla"
	"github.com/caredesk/slaflow/pkg/web"
	"github.com/caredesk/slaflow/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	manager     *sla.Manager
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	manager *sla.Manager,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		manager:     manager,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	policyService := policy.NewService(a.persistence.Policies())
	workflowService := workflow.NewRepository(a.persistence.Workflows(), a.registry)

	handlers := web.NewAPIHandlers(policyService, workflowService, a.manager, a.persistence, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Slaflow API")
	})

	p := app.Group("/policies")
	p.Get("/", handlers.GetPolicies)
	p.Post("/", handlers.CreatePolicy)
	p.Get("/:id", handlers.GetPolicy)
	p.Patch("/:id", handlers.UpdatePolicy)
	p.Delete("/:id", handlers.DeletePolicy)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)

	app.Get("/nodes", handlers.GetNodeTypes)

	// Timer endpoints:
	s := app.Group("/sla")
	s.Post("/start", handlers.StartTimers)
	s.Post("/:ticketId/pause", handlers.PauseTimers)
	s.Post("/:ticketId/resume", handlers.ResumeTimers)
	s.Post("/:ticketId/stop", handlers.StopTimers)
	s.Get("/:ticketId/timers", handlers.GetTimers)
	s.Get("/:ticketId/breaches", handlers.GetBreaches)
	s.Get("/:ticketId/escalations", handlers.GetEscalations)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
