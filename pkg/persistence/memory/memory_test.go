package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

func TestPolicyRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	policy := &models.SLAPolicy{
		ID:     "policy-1",
		Name:   "Standard",
		Active: true,
		Targets: map[string]models.PriorityTargets{
			"high": {ResponseMinutes: 60, ResolutionMinutes: 240},
		},
	}
	require.NoError(t, store.Policies().Save(ctx, policy))

	loaded, err := store.Policies().ByID(ctx, "policy-1")
	require.NoError(t, err)
	assert.Equal(t, "Standard", loaded.Name)

	// Mutating the loaded copy must not leak into the store.
	loaded.Name = "Mutated"

	reloaded, err := store.Policies().ByID(ctx, "policy-1")
	require.NoError(t, err)
	assert.Equal(t, "Standard", reloaded.Name)
}

func TestPolicyRepository_ActiveFiltersInactive(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.Policies().Save(ctx, &models.SLAPolicy{ID: "on", Name: "On", Active: true}))
	require.NoError(t, store.Policies().Save(ctx, &models.SLAPolicy{ID: "off", Name: "Off"}))

	active, err := store.Policies().Active(ctx)

	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].ID)
}

func TestPolicyRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	_, err := store.Policies().ByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrPolicyNotFound)
	assert.True(t, persistence.IsNotFound(err))

	err = store.Policies().Delete(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrPolicyNotFound)
}

func TestTimerRepository_ActiveByTicket(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	save := func(id string, status models.TimerStatus) {
		require.NoError(t, store.Timers().Save(ctx, &models.SLATimer{
			ID:       id,
			TicketID: "ticket-1",
			Type:     models.TimerTypeResponse,
			Status:   status,
		}))
	}

	save("running", models.TimerStatusRunning)
	save("paused", models.TimerStatusPaused)
	save("stopped", models.TimerStatusStopped)
	save("breached", models.TimerStatusBreached)

	active, err := store.Timers().ActiveByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "running", active[0].ID)
	assert.Equal(t, "paused", active[1].ID)

	running, err := store.Timers().Running(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "running", running[0].ID)

	all, err := store.Timers().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTimerRepository_SaveUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	timer := &models.SLATimer{
		ID:       "timer-1",
		TicketID: "ticket-1",
		Type:     models.TimerTypeResponse,
		Status:   models.TimerStatusRunning,
	}
	require.NoError(t, store.Timers().Save(ctx, timer))

	timer.Status = models.TimerStatusPaused
	require.NoError(t, store.Timers().Save(ctx, timer))

	loaded, err := store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStatusPaused, loaded.Status)

	all, err := store.Timers().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBreachRepository_FiltersByTicketAndTimer(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.Breaches().Save(ctx, &models.SLABreach{
		ID: "breach-1", TimerID: "timer-1", TicketID: "ticket-1",
	}))
	require.NoError(t, store.Breaches().Save(ctx, &models.SLABreach{
		ID: "breach-2", TimerID: "timer-2", TicketID: "ticket-2",
	}))

	byTicket, err := store.Breaches().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, byTicket, 1)
	assert.Equal(t, "breach-1", byTicket[0].ID)

	byTimer, err := store.Breaches().ByTimer(ctx, "timer-2")
	require.NoError(t, err)
	require.Len(t, byTimer, 1)
	assert.Equal(t, "breach-2", byTimer[0].ID)
}

func TestEscalationRepository_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	for level := 1; level <= 3; level++ {
		require.NoError(t, store.Escalations().Append(ctx, &models.SLAEscalation{
			ID:        string(rune('a' + level)),
			TicketID:  "ticket-1",
			Level:     level,
			CreatedAt: time.Now(),
		}))
	}

	escalations, err := store.Escalations().ByTicket(ctx, "ticket-1")

	require.NoError(t, err)
	require.Len(t, escalations, 3)
	assert.Equal(t, 1, escalations[0].Level)
	assert.Equal(t, 3, escalations[2].Level)
}

func TestWorkflowRepository_ExecutableFilter(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	save := func(id string, active, draft bool) {
		require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{
			ID:       id,
			Name:     "Workflow " + id,
			IsActive: active,
			IsDraft:  draft,
		}))
	}

	save("live", true, false)
	save("draft", true, true)
	save("disabled", false, false)

	executable, err := store.Workflows().Executable(ctx)

	require.NoError(t, err)
	require.Len(t, executable, 1)
	assert.Equal(t, "live", executable[0].ID)
}

func TestWorkflowRepository_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	wf := &models.Workflow{
		ID:       "wf-1",
		Name:     "Graph Workflow",
		IsActive: true,
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: models.NodeTypeTicketCreated},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "trigger-1", Target: "trigger-1"},
		},
	}
	require.NoError(t, store.Workflows().Save(ctx, wf))

	loaded, err := store.Workflows().ByID(ctx, "wf-1")
	require.NoError(t, err)

	loaded.Nodes[0].Type = models.NodeTypeMerge

	reloaded, err := store.Workflows().ByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeTicketCreated, reloaded.Nodes[0].Type)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{ID: "wf-1", Name: "Workflow"}))
	require.NoError(t, store.Workflows().Delete(ctx, "wf-1"))

	_, err := store.Workflows().ByID(ctx, "wf-1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	err = store.Workflows().Delete(ctx, "wf-1")
	assert.True(t, persistence.IsNotFound(err))
}
