package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/caredesk/slaflow/pkg/cmd"
	"github.com/caredesk/slaflow/pkg/log"
	"github.com/caredesk/slaflow/pkg/policy"
	"github.com/caredesk/slaflow/pkg/registry"
	"github.com/caredesk/slaflow/pkg/sla"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "slaflow-api",
		Usage:                 "Manage SLA policies, workflows and timers",
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Slaflow API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			resolver := policy.NewResolver(persistence.Policies(), logger)
			manager := sla.NewManager(persistence.Timers(), resolver, logger)
			monitor := sla.NewMonitor(sla.MonitorDeps{
				Manager:     manager,
				Timers:      persistence.Timers(),
				Policies:    persistence.Policies(),
				Breaches:    persistence.Breaches(),
				Escalations: persistence.Escalations(),
			}, logger)

			// The API validates workflows and lists node schemas but
			// never executes nodes, so ticket store and notification
			// deps stay unset here.
			reg := cmd.NewRegistry(ctx, logger, registry.NodeDeps{
				Manager:     manager,
				Monitor:     monitor,
				Timers:      persistence.Timers(),
				Escalations: persistence.Escalations(),
			})

			api := NewAPI(
				logger,
				persistence,
				reg,
				manager,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
