package ticketstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/caredesk/slaflow/pkg/models"
)

var (
	redisAddr string
	logger    *slog.Logger
)

func TestMain(m *testing.M) {
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		panic("Failed to start Redis container: " + err.Error())
	}

	host, err := container.Host(ctx)
	if err != nil {
		panic("Failed to get Redis host: " + err.Error())
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		panic("Failed to get Redis port: " + err.Error())
	}

	redisAddr = host + ":" + port.Port()

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		panic("Failed to terminate Redis container: " + err.Error())
	}

	os.Exit(code)
}

func newTestStore(t *testing.T) *RedisTicketStore {
	t.Helper()

	ctx := context.Background()

	store, err := NewRedisTicketStore(ctx, redisAddr, "", 0, logger)
	require.NoError(t, err)

	require.NoError(t, store.Client().FlushDB(ctx).Err())

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func seedTicket(t *testing.T, store *RedisTicketStore, ticket *models.Ticket) {
	t.Helper()

	payload, err := json.Marshal(ticket)
	require.NoError(t, err)

	require.NoError(t, store.Client().Set(context.Background(), ticketKeyPrefix+ticket.ID, payload, 0).Err())
}

func TestRedisTicketStore_Ticket(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedTicket(t, store, &models.Ticket{
		ID:           "ticket-1",
		Priority:     "high",
		Status:       "open",
		DepartmentID: "dept-billing",
		AssigneeID:   "agent-7",
		CreatedAt:    time.Now().UTC(),
	})

	ticket, err := store.Ticket(ctx, "ticket-1")

	require.NoError(t, err)
	assert.Equal(t, "high", ticket.Priority)
	assert.Equal(t, "agent-7", ticket.AssigneeID)
}

func TestRedisTicketStore_TicketNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Ticket(context.Background(), "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRedisTicketStore_MutationsQueueCommands(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateField(ctx, "ticket-1", "status", "escalated"))
	require.NoError(t, store.Assign(ctx, "ticket-1", "agent-3"))
	require.NoError(t, store.AddNote(ctx, "ticket-1", "SLA warning at 80%", true))

	payloads, err := store.Client().LRange(ctx, commandQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, payloads, 3)

	var update map[string]any

	require.NoError(t, json.Unmarshal([]byte(payloads[0]), &update))
	assert.Equal(t, "update_field", update["action"])
	assert.Equal(t, "status", update["field"])
	assert.Equal(t, "escalated", update["value"])
	assert.NotEmpty(t, update["issued_at"])

	var assign map[string]any

	require.NoError(t, json.Unmarshal([]byte(payloads[1]), &assign))
	assert.Equal(t, "assign", assign["action"])
	assert.Equal(t, "agent-3", assign["agent_id"])

	var note map[string]any

	require.NoError(t, json.Unmarshal([]byte(payloads[2]), &note))
	assert.Equal(t, "add_note", note["action"])
	assert.Equal(t, true, note["internal"])
}

func TestRedisTicketStore_Agents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// No key yet means no agents, not an error.
	agents, err := store.Agents(ctx)
	require.NoError(t, err)
	assert.Empty(t, agents)

	payload, err := json.Marshal([]*models.Agent{
		{ID: "agent-1", Name: "Alex", Active: true, OpenTickets: 2},
		{ID: "agent-2", Name: "Sam", Active: false, OpenTickets: 0},
	})
	require.NoError(t, err)
	require.NoError(t, store.Client().Set(ctx, agentsKey, payload, 0).Err())

	agents, err = store.Agents(ctx)

	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "agent-1", agents[0].ID)
	assert.True(t, agents[0].Active)
}

func TestRedisNotificationSink_Send(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sink := NewRedisNotificationSink(store.Client(), logger)

	err := sink.Send(ctx, models.Notification{
		Recipient: "agent-7",
		Subject:   "SLA escalation level 1",
		Body:      "Resolution timer for ticket-1 is at 83% of target.",
		Priority:  "high",
		Channel:   "email",
	})
	require.NoError(t, err)

	payload, err := store.Client().LPop(ctx, notificationQueue).Result()
	require.NoError(t, err)

	var queued map[string]any

	require.NoError(t, json.Unmarshal([]byte(payload), &queued))
	assert.Equal(t, "agent-7", queued["recipient"])
	assert.Equal(t, "SLA escalation level 1", queued["subject"])
	assert.NotEmpty(t, queued["queued_at"])
}
