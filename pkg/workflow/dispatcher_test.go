package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caredesk/slaflow/pkg/events"
	"github.com/caredesk/slaflow/pkg/mocks"
	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence/memory"
)

type dispatcherFixture struct {
	dispatcher *Dispatcher
	store      *memory.Persistence
	tickets    *mocks.TicketStore
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	store := memory.NewPersistence()
	tickets := mocks.NewTicketStore()
	executor := NewExecutor(newTestRegistry(tickets), testLogger())
	dispatcher := NewDispatcher(store.Workflows(), executor, testLogger())

	return &dispatcherFixture{
		dispatcher: dispatcher,
		store:      store,
		tickets:    tickets,
	}
}

// saveWorkflow stores a single trigger-to-update workflow whose update
// value identifies the workflow that ran.
func (f *dispatcherFixture) saveWorkflow(t *testing.T, id string, triggerType models.NodeType, triggerConfig map[string]any) {
	t.Helper()

	wf := &models.Workflow{
		ID:       id,
		Name:     "Workflow " + id,
		IsActive: true,
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: triggerType, Config: triggerConfig},
			{ID: "update-1", Type: models.NodeTypeUpdateField, Config: map[string]any{
				"field": "status", "value": id,
			}},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "trigger-1", Target: "update-1"},
		},
	}

	require.NoError(t, f.store.Workflows().Save(context.Background(), wf))
}

// ranWorkflows returns the workflow ids recorded by the update nodes.
func (f *dispatcherFixture) ranWorkflows() []string {
	ids := make([]string, 0, len(f.tickets.Updates))
	for _, update := range f.tickets.Updates {
		ids = append(ids, update.Value)
	}

	return ids
}

func ticketCreated(ticket models.Ticket) events.TicketCreated {
	return events.TicketCreated{
		BaseEvent: events.BaseEvent{
			ID:        "evt-1",
			Type:      events.TicketCreatedEvent,
			Timestamp: time.Now(),
		},
		Ticket: ticket,
	}
}

func TestDispatcher_OnTicketCreated_MatchesDepartmentFilter(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	f.saveWorkflow(t, "wf-billing", models.NodeTypeTicketCreated, map[string]any{
		"department": "dept-billing",
	})
	f.saveWorkflow(t, "wf-any", models.NodeTypeTicketCreated, nil)

	err := f.dispatcher.OnTicketCreated(ctx, ticketCreated(models.Ticket{
		ID:           "ticket-1",
		Priority:     "high",
		DepartmentID: "dept-support",
	}))
	require.NoError(t, err)

	f.dispatcher.Wait()

	ran := f.ranWorkflows()
	assert.ElementsMatch(t, []string{"wf-any"}, ran)
}

func TestDispatcher_OnTicketCreated_MatchesPriorityList(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	f.saveWorkflow(t, "wf-urgent", models.NodeTypeTicketCreated, map[string]any{
		"priorities": []any{"high", "urgent"},
	})

	err := f.dispatcher.OnTicketCreated(ctx, ticketCreated(models.Ticket{
		ID:       "ticket-1",
		Priority: "low",
	}))
	require.NoError(t, err)
	f.dispatcher.Wait()
	assert.Empty(t, f.ranWorkflows())

	err = f.dispatcher.OnTicketCreated(ctx, ticketCreated(models.Ticket{
		ID:       "ticket-2",
		Priority: "HIGH",
	}))
	require.NoError(t, err)
	f.dispatcher.Wait()
	assert.ElementsMatch(t, []string{"wf-urgent"}, f.ranWorkflows())
}

func TestDispatcher_OnTicketCreated_SkipsInactiveWorkflows(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	wf := &models.Workflow{
		ID:       "wf-off",
		Name:     "Disabled Workflow",
		IsActive: false,
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: models.NodeTypeTicketCreated},
			{ID: "update-1", Type: models.NodeTypeUpdateField, Config: map[string]any{
				"field": "status", "value": "wf-off",
			}},
		},
		Edges: []*models.Edge{{ID: "e1", Source: "trigger-1", Target: "update-1"}},
	}
	require.NoError(t, f.store.Workflows().Save(ctx, wf))

	err := f.dispatcher.OnTicketCreated(ctx, ticketCreated(models.Ticket{ID: "ticket-1"}))
	require.NoError(t, err)

	f.dispatcher.Wait()
	assert.Empty(t, f.ranWorkflows())
}

func TestDispatcher_OnTicketUpdated_WatchFieldIntersection(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	f.saveWorkflow(t, "wf-priority", models.NodeTypeTicketUpdated, map[string]any{
		"watchFields": []any{"priority"},
	})
	f.saveWorkflow(t, "wf-all", models.NodeTypeTicketUpdated, nil)

	event := events.TicketUpdated{
		BaseEvent: events.BaseEvent{
			ID:        "evt-1",
			Type:      events.TicketUpdatedEvent,
			Timestamp: time.Now(),
		},
		Ticket:        models.Ticket{ID: "ticket-1", Priority: "high"},
		ChangedFields: []string{"status"},
	}

	err := f.dispatcher.OnTicketUpdated(ctx, event)
	require.NoError(t, err)

	f.dispatcher.Wait()

	// Only the empty watch list matched a status change.
	assert.ElementsMatch(t, []string{"wf-all"}, f.ranWorkflows())
}

func TestDispatcher_OnTimerTick_SeedsTimerContext(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	wf := &models.Workflow{
		ID:       "wf-tick",
		Name:     "Timer Tick Workflow",
		IsActive: true,
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: models.NodeTypeTimeScheduler},
			{ID: "update-1", Type: models.NodeTypeUpdateField, Config: map[string]any{
				"field": "status", "value": "{{timerId}}",
			}},
		},
		Edges: []*models.Edge{{ID: "e1", Source: "trigger-1", Target: "update-1"}},
	}
	require.NoError(t, f.store.Workflows().Save(ctx, wf))

	f.dispatcher.OnTimerTick(ctx, &models.SLATimer{
		ID:               "timer-42",
		TicketID:         "ticket-1",
		Type:             models.TimerTypeResolution,
		Priority:         "high",
		RemainingMinutes: 40,
	}, 16.7)

	f.dispatcher.Wait()

	require.Len(t, f.tickets.Updates, 1)
	assert.Equal(t, "ticket-1", f.tickets.Updates[0].TicketID)
	assert.Equal(t, "timer-42", f.tickets.Updates[0].Value)
}

func TestDispatcher_TriggerTypeMismatchDoesNotFire(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	f.saveWorkflow(t, "wf-updated", models.NodeTypeTicketUpdated, nil)

	err := f.dispatcher.OnTicketCreated(ctx, ticketCreated(models.Ticket{ID: "ticket-1"}))
	require.NoError(t, err)

	f.dispatcher.Wait()
	assert.Empty(t, f.ranWorkflows())
}
