package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"sla_escalations", "sla_breaches", "sla_timers", "workflows", "sla_policies", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("slaflow_test"),
			postgres.WithUsername("slaflow"),
			postgres.WithPassword("slaflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	for _, table := range []string{"sla_policies", "sla_timers", "sla_breaches", "sla_escalations", "workflows", "schema_migrations"} {
		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table+" table should exist")
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestPolicyRepository_SaveAndResolveFields(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	policy := &models.SLAPolicy{
		ID:        uuid.New().String(),
		Name:      "Billing SLA",
		Active:    true,
		IsDefault: true,
		Targets: map[string]models.PriorityTargets{
			"high":   {ResponseMinutes: 30, ResolutionMinutes: 240},
			"normal": {ResponseMinutes: 120, ResolutionMinutes: 1440},
		},
		EscalationLevel1: 80,
		EscalationLevel2: 95,
		UseBusinessHours: true,
		BusinessHours: models.BusinessHours{
			Timezone: "UTC",
			Windows: []models.BusinessWindow{
				{Weekday: time.Monday, Start: "09:00", End: "17:00"},
			},
		},
		PauseOnWaiting: true,
		PauseOffHours:  true,
		DepartmentIDs:  []string{"dept-billing"},
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	require.NoError(t, store.Policies().Save(ctx, policy))

	loaded, err := store.Policies().ByID(ctx, policy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Billing SLA", loaded.Name)
	assert.True(t, loaded.IsDefault)
	assert.Equal(t, 30, loaded.Targets["high"].ResponseMinutes)
	assert.Equal(t, 95, loaded.EscalationLevel2)
	assert.Equal(t, []string{"dept-billing"}, loaded.DepartmentIDs)
	require.Len(t, loaded.BusinessHours.Windows, 1)
	assert.Equal(t, "09:00", loaded.BusinessHours.Windows[0].Start)

	active, err := store.Policies().Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	// Save on an existing id updates in place.
	policy.Name = "Billing SLA v2"
	require.NoError(t, store.Policies().Save(ctx, policy))

	loaded, err = store.Policies().ByID(ctx, policy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Billing SLA v2", loaded.Name)

	require.NoError(t, store.Policies().Delete(ctx, policy.ID))

	_, err = store.Policies().ByID(ctx, policy.ID)
	assert.True(t, persistence.IsNotFound(err))
}

func TestTimerRepository_LifecycleAndFilters(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	policyID := uuid.New().String()
	now := time.Now().UTC().Truncate(time.Second)

	timer := &models.SLATimer{
		ID:               uuid.New().String(),
		TicketID:         "ticket-1",
		PolicyID:         policyID,
		Type:             models.TimerTypeResolution,
		TargetMinutes:    240,
		RemainingMinutes: 240,
		Status:           models.TimerStatusRunning,
		Priority:         "high",
		StartedAt:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, store.Timers().Save(ctx, timer))

	stopped := &models.SLATimer{
		ID:            uuid.New().String(),
		TicketID:      "ticket-1",
		PolicyID:      policyID,
		Type:          models.TimerTypeResponse,
		TargetMinutes: 60,
		Status:        models.TimerStatusStopped,
		Priority:      "high",
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.Timers().Save(ctx, stopped))

	loaded, err := store.Timers().ByID(ctx, timer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TimerTypeResolution, loaded.Type)
	assert.Equal(t, 240, loaded.TargetMinutes)
	assert.Equal(t, "high", loaded.Priority)
	assert.Nil(t, loaded.PausedAt)

	active, err := store.Timers().ActiveByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, timer.ID, active[0].ID)

	running, err := store.Timers().Running(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)

	// Transition into breached and verify the timestamps round trip.
	breachedAt := now.Add(250 * time.Minute)
	timer.Status = models.TimerStatusBreached
	timer.BreachedAt = &breachedAt
	timer.ElapsedMinutes = 250
	timer.RemainingMinutes = -10
	require.NoError(t, store.Timers().Save(ctx, timer))

	loaded, err = store.Timers().ByID(ctx, timer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TimerStatusBreached, loaded.Status)
	require.NotNil(t, loaded.BreachedAt)
	assert.True(t, loaded.BreachedAt.Equal(breachedAt))
	assert.Equal(t, -10, loaded.RemainingMinutes)

	running, err = store.Timers().Running(ctx)
	require.NoError(t, err)
	assert.Empty(t, running)

	_, err = store.Timers().ByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, persistence.ErrTimerNotFound)
}

func TestBreachAndEscalationRepositories(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	timerID := uuid.New().String()
	now := time.Now().UTC().Truncate(time.Second)

	breach := &models.SLABreach{
		ID:             uuid.New().String(),
		TimerID:        timerID,
		TicketID:       "ticket-1",
		Type:           models.TimerTypeResolution,
		TargetMinutes:  240,
		ElapsedMinutes: 250,
		OverageMinutes: 10,
		Ticket: models.TicketSnapshot{
			Priority:   "high",
			Status:     "open",
			AssigneeID: "agent-7",
		},
		CreatedAt: now,
	}
	require.NoError(t, store.Breaches().Save(ctx, breach))

	byTicket, err := store.Breaches().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, byTicket, 1)
	assert.Equal(t, 10, byTicket[0].OverageMinutes)
	assert.Equal(t, "agent-7", byTicket[0].Ticket.AssigneeID)

	byTimer, err := store.Breaches().ByTimer(ctx, timerID)
	require.NoError(t, err)
	assert.Len(t, byTimer, 1)

	for level := 1; level <= 3; level++ {
		require.NoError(t, store.Escalations().Append(ctx, &models.SLAEscalation{
			ID:        uuid.New().String(),
			TicketID:  "ticket-1",
			TimerID:   timerID,
			Level:     level,
			Reason:    "resolution timer escalation",
			CreatedAt: now.Add(time.Duration(level) * time.Minute),
		}))
	}

	escalations, err := store.Escalations().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, escalations, 3)
	assert.Equal(t, models.EscalationLevelOne, escalations[0].Level)
	assert.Equal(t, models.EscalationLevelBreach, escalations[2].Level)
}

func TestWorkflowRepository_GraphRoundTrip(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	policyID := uuid.New().String()
	workflow := &models.Workflow{
		ID:       uuid.New().String(),
		Name:     "High Priority Escalation",
		IsActive: true,
		PolicyID: &policyID,
		Nodes: []*models.Node{
			{
				ID:   "trigger-1",
				Type: models.NodeTypeTicketCreated,
				Config: map[string]any{
					"department": "billing",
				},
			},
			{
				ID:   "cond-1",
				Type: models.NodeTypeConditionIf,
				Config: map[string]any{
					"field":    "priority",
					"operator": "equals",
					"value":    "high",
				},
			},
			{
				ID:   "update-1",
				Type: models.NodeTypeUpdateField,
				Config: map[string]any{
					"field": "status",
					"value": "escalated",
				},
			},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "trigger-1", Target: "cond-1"},
			{ID: "e2", Source: "cond-1", Target: "update-1", SourceHandle: models.SourceHandleTrue},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	require.NoError(t, store.Workflows().Save(ctx, workflow))

	loaded, err := store.Workflows().ByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 3)
	assert.Equal(t, "priority", loaded.Nodes[1].Config["field"])
	require.Len(t, loaded.Edges, 2)
	assert.Equal(t, models.SourceHandleTrue, loaded.Edges[1].SourceHandle)
	require.NotNil(t, loaded.PolicyID)
	assert.Equal(t, policyID, *loaded.PolicyID)

	executable, err := store.Workflows().Executable(ctx)
	require.NoError(t, err)
	require.Len(t, executable, 1)

	// Demote to draft and confirm Executable no longer returns it.
	workflow.IsDraft = true
	require.NoError(t, store.Workflows().Save(ctx, workflow))

	executable, err = store.Workflows().Executable(ctx)
	require.NoError(t, err)
	assert.Empty(t, executable)

	require.NoError(t, store.Workflows().Delete(ctx, workflow.ID))

	_, err = store.Workflows().ByID(ctx, workflow.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestHealthCheck(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	assert.NoError(t, store.HealthCheck(ctx))
}
