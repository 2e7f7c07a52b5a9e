package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/caredesk/slaflow/pkg/cmd"
	"github.com/caredesk/slaflow/pkg/log"
	"github.com/caredesk/slaflow/pkg/monitorsched"
	"github.com/caredesk/slaflow/pkg/otelhelper"
	"github.com/caredesk/slaflow/pkg/policy"
	"github.com/caredesk/slaflow/pkg/queue"
	"github.com/caredesk/slaflow/pkg/registry"
	"github.com/caredesk/slaflow/pkg/sla"
	"github.com/caredesk/slaflow/pkg/ticketstore"
	"github.com/caredesk/slaflow/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "slaflow-monitor",
		Usage:                 "Start the Slaflow monitor service",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "monitor-id",
				Aliases: []string{"id"},
				Usage:   "Custom monitor ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("MONITOR_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the ticket store bridge",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password for the ticket store bridge",
				Value:   "",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database for the ticket store bridge",
				Value:   0,
				Sources: cli.EnvVars("REDIS_DB"),
			},
			&cli.StringFlag{
				Name:    "ticket-queue",
				Usage:   "Redis list the ticket system pushes events onto",
				Value:   "slaflow:ticket-events",
				Sources: cli.EnvVars("TICKET_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron expression for the SLA sweep",
				Value:   monitorsched.DefaultSchedule,
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
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

			monitorID := command.String("monitor-id")
			if monitorID == "" {
				monitorID = fmt.Sprintf("monitor-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("slaflow-monitor").With("monitor_id", monitorID)

			logger.Info("Initializing Slaflow Monitor", "monitor_id", monitorID)

			tracer, err := otelhelper.NewTracer(ctx, "slaflow-monitor")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.Error("Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			tickets, err := ticketstore.NewRedisTicketStore(
				ctx,
				command.String("redis-addr"),
				command.String("redis-password"),
				command.Int("redis-db"),
				logger,
			)
			if err != nil {
				return fmt.Errorf("failed to connect to ticket store: %w", err)
			}
			defer func() {
				if err := tickets.Close(); err != nil {
					logger.Error("Failed to close ticket store", "error", err)
				}
			}()

			notifier := ticketstore.NewRedisNotificationSink(tickets.Client(), logger)

			resolver := policy.NewResolver(persistence.Policies(), logger)
			manager := sla.NewManager(persistence.Timers(), resolver, logger)
			monitor := sla.NewMonitor(sla.MonitorDeps{
				Manager:     manager,
				Timers:      persistence.Timers(),
				Policies:    persistence.Policies(),
				Breaches:    persistence.Breaches(),
				Escalations: persistence.Escalations(),
				Tickets:     tickets,
				Notifier:    notifier,
				Tracer:      tracer,
			}, logger)

			reg := cmd.NewRegistry(ctx, logger, registry.NodeDeps{
				Manager:     manager,
				Monitor:     monitor,
				Timers:      persistence.Timers(),
				Escalations: persistence.Escalations(),
				Tickets:     tickets,
				Notifier:    notifier,
			})

			executor := workflow.NewExecutor(reg, logger).WithTracer(tracer)
			dispatcher := workflow.NewDispatcher(persistence.Workflows(), executor, logger).
				WithPublisher(eventBus)
			monitor.WithTicks(dispatcher)

			scheduler, err := monitorsched.NewScheduler(monitor, command.String("sweep-schedule"), logger)
			if err != nil {
				return fmt.Errorf("failed to create sweep scheduler: %w", err)
			}

			consumer, err := queue.NewConsumer(command.String("ticket-queue"), map[string]string{
				"addr":     command.String("redis-addr"),
				"password": command.String("redis-password"),
				"db":       fmt.Sprintf("%d", command.Int("redis-db")),
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to create queue consumer: %w", err)
			}

			service := NewMonitorService(
				monitorID,
				eventBus,
				consumer,
				scheduler,
				dispatcher,
				logger,
			)

			service.Start(ctx)

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
