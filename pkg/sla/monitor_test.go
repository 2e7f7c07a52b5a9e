package sla

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caredesk/slaflow/pkg/mocks"
	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence/memory"
	"github.com/caredesk/slaflow/pkg/policy"
)

type monitorFixture struct {
	manager  *Manager
	monitor  *Monitor
	store    *memory.Persistence
	tickets  *mocks.TicketStore
	notifier *mocks.NotificationSink
	start    time.Time
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	store := memory.NewPersistence()
	logger := testLogger()

	err := store.Policies().Save(context.Background(), testPolicy())
	require.NoError(t, err)

	tickets := mocks.NewTicketStore()
	tickets.AddTicket(&models.Ticket{
		ID:         "ticket-1",
		Priority:   "high",
		Status:     "open",
		AssigneeID: "agent-7",
	})

	notifier := mocks.NewNotificationSink()
	resolver := policy.NewResolver(store.Policies(), logger)
	manager := NewManager(store.Timers(), resolver, logger)
	monitor := NewMonitor(MonitorDeps{
		Manager:     manager,
		Timers:      store.Timers(),
		Policies:    store.Policies(),
		Breaches:    store.Breaches(),
		Escalations: store.Escalations(),
		Tickets:     tickets,
		Notifier:    notifier,
	}, logger)

	return &monitorFixture{
		manager:  manager,
		monitor:  monitor,
		store:    store,
		tickets:  tickets,
		notifier: notifier,
		start:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

// setClock advances both the manager and monitor clocks to start+offset.
func (f *monitorFixture) setClock(offset time.Duration) {
	now := f.start.Add(offset)
	f.manager.now = func() time.Time { return now }
	f.monitor.now = func() time.Time { return now }
}

// seedTimer creates one running resolution timer with a 240 minute
// target started at the fixture epoch.
func (f *monitorFixture) seedTimer(t *testing.T) *models.SLATimer {
	t.Helper()

	timer := &models.SLATimer{
		ID:               "timer-1",
		TicketID:         "ticket-1",
		PolicyID:         "policy-1",
		Type:             models.TimerTypeResolution,
		TargetMinutes:    240,
		RemainingMinutes: 240,
		Status:           models.TimerStatusRunning,
		Priority:         "high",
		StartedAt:        f.start,
		CreatedAt:        f.start,
		UpdatedAt:        f.start,
	}

	require.NoError(t, f.store.Timers().Save(context.Background(), timer))

	return timer
}

func TestMonitor_Sweep_Level1EscalationFiresOnce(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedTimer(t)

	// 200 of 240 minutes used: 83.3%, past the 80% threshold.
	f.setClock(200 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	escalations, err := f.store.Escalations().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, escalations, 1)
	assert.Equal(t, models.EscalationLevelOne, escalations[0].Level)
	assert.Equal(t, "timer-1", escalations[0].TimerID)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "agent-7", sent[0].Recipient)
	assert.Equal(t, "SLA escalation level 1", sent[0].Subject)

	timer, err := f.store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.NotNil(t, timer.Level1NotifiedAt)
	assert.Equal(t, 200, timer.ElapsedMinutes)
	assert.Equal(t, 40, timer.RemainingMinutes)

	// A second sweep at the same threshold must not duplicate.
	f.setClock(210 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	escalations, err = f.store.Escalations().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Len(t, escalations, 1)
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestMonitor_Sweep_Level2AfterLevel1(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedTimer(t)

	f.setClock(200 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	// 230 of 240 minutes used: 95.8%, past the 95% threshold.
	f.setClock(230 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	escalations, err := f.store.Escalations().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, escalations, 2)
	assert.Equal(t, models.EscalationLevelOne, escalations[0].Level)
	assert.Equal(t, models.EscalationLevelTwo, escalations[1].Level)

	timer, err := f.store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.NotNil(t, timer.Level1NotifiedAt)
	assert.NotNil(t, timer.Level2NotifiedAt)
}

func TestMonitor_Sweep_BreachRecordedOnce(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedTimer(t)

	// 250 of 240 minutes used: breached by 10.
	f.setClock(250 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	breaches, err := f.store.Breaches().ByTimer(ctx, "timer-1")
	require.NoError(t, err)
	require.Len(t, breaches, 1)
	assert.Equal(t, 240, breaches[0].TargetMinutes)
	assert.Equal(t, 250, breaches[0].ElapsedMinutes)
	assert.Equal(t, 10, breaches[0].OverageMinutes)
	assert.Equal(t, "high", breaches[0].Ticket.Priority)
	assert.Equal(t, "agent-7", breaches[0].Ticket.AssigneeID)

	escalations, err := f.store.Escalations().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	require.Len(t, escalations, 1)
	assert.Equal(t, models.EscalationLevelBreach, escalations[0].Level)

	timer, err := f.store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStatusBreached, timer.Status)
	require.NotNil(t, timer.BreachedAt)
	assert.Equal(t, -10, timer.RemainingMinutes)

	// Breached timers drop out of the running set; nothing fires twice.
	f.setClock(300 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	breaches, err = f.store.Breaches().ByTimer(ctx, "timer-1")
	require.NoError(t, err)
	assert.Len(t, breaches, 1)
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestMonitor_Sweep_FailedNotificationRetriesNextSweep(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedTimer(t)

	f.notifier.FailWith = errors.New("smtp unavailable")

	f.setClock(200 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	timer, err := f.store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.Nil(t, timer.Level1NotifiedAt)

	escalations, err := f.store.Escalations().ByTicket(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Empty(t, escalations)

	// The stamp stayed unset, so the next sweep retries delivery.
	f.notifier.FailWith = nil

	f.setClock(205 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	timer, err = f.store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.NotNil(t, timer.Level1NotifiedAt)
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestMonitor_Sweep_SkipsOffHours(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)

	pol := testPolicy()
	pol.UseBusinessHours = true
	pol.PauseOffHours = true
	pol.BusinessHours = models.BusinessHours{
		Timezone: "UTC",
		Windows: []models.BusinessWindow{
			{Weekday: time.Monday, Start: "09:00", End: "17:00"},
		},
	}
	require.NoError(t, f.store.Policies().Save(ctx, pol))

	f.seedTimer(t)

	// 2026-03-08 is a Sunday; the policy calendar is closed.
	sunday := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	f.manager.now = func() time.Time { return sunday }
	f.monitor.now = func() time.Time { return sunday }

	require.NoError(t, f.monitor.Sweep(ctx))

	timer, err := f.store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStatusRunning, timer.Status)
	assert.Nil(t, timer.Level1NotifiedAt)

	breaches, err := f.store.Breaches().ByTimer(ctx, "timer-1")
	require.NoError(t, err)
	assert.Empty(t, breaches)
}

func TestMonitor_Sweep_UnassignedTicketNotifiesEscalationQueue(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedTimer(t)

	f.tickets.AddTicket(&models.Ticket{ID: "ticket-1", Priority: "high", Status: "open"})

	f.setClock(200 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "sla-escalations", sent[0].Recipient)
}

type tickRecorder struct {
	mu    sync.Mutex
	ticks []float64
}

func (r *tickRecorder) OnTimerTick(_ context.Context, _ *models.SLATimer, percentRemaining float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ticks = append(r.ticks, percentRemaining)
}

func TestMonitor_Sweep_EmitsTicks(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedTimer(t)

	recorder := &tickRecorder{}
	f.monitor.WithTicks(recorder)

	// 60 of 240 minutes used: 75% remaining.
	f.setClock(60 * time.Minute)
	require.NoError(t, f.monitor.Sweep(ctx))

	require.Len(t, recorder.ticks, 1)
	assert.InDelta(t, 75.0, recorder.ticks[0], 0.01)
}

func TestMonitor_BreachTicket_OnlyBreachesExpiredTimers(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedTimer(t)

	// Second timer with a short target, already expired.
	require.NoError(t, f.store.Timers().Save(ctx, &models.SLATimer{
		ID:            "timer-2",
		TicketID:      "ticket-1",
		PolicyID:      "policy-1",
		Type:          models.TimerTypeResponse,
		TargetMinutes: 30,
		Status:        models.TimerStatusRunning,
		Priority:      "high",
		StartedAt:     f.start,
		CreatedAt:     f.start,
		UpdatedAt:     f.start,
	}))

	f.setClock(60 * time.Minute)

	breached, err := f.monitor.BreachTicket(ctx, "ticket-1")

	require.NoError(t, err)
	assert.Equal(t, 1, breached)

	expired, err := f.store.Timers().ByID(ctx, "timer-2")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStatusBreached, expired.Status)

	healthy, err := f.store.Timers().ByID(ctx, "timer-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStatusRunning, healthy.Status)
}
