// Package postgresql provides the PostgreSQL persistence
// implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	policies    *policyRepository
	timers      *timerRepository
	breaches    *breachRepository
	escalations *escalationRepository
	workflows   *workflowRepository
}

// NewPersistence connects, runs migrations and returns the store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		policies:    &policyRepository{db: database, logger: logger},
		timers:      &timerRepository{db: database, logger: logger},
		breaches:    &breachRepository{db: database, logger: logger},
		escalations: &escalationRepository{db: database, logger: logger},
		workflows:   &workflowRepository{db: database, logger: logger},
	}, nil
}

func (p *Persistence) Policies() persistence.PolicyRepository        { return p.policies }
func (p *Persistence) Timers() persistence.TimerRepository           { return p.timers }
func (p *Persistence) Breaches() persistence.BreachRepository        { return p.breaches }
func (p *Persistence) Escalations() persistence.EscalationRepository { return p.escalations }
func (p *Persistence) Workflows() persistence.WorkflowRepository     { return p.workflows }

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
