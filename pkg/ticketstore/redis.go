// Package ticketstore bridges the engine to the ticket system of
// record over Redis. The ticket system mirrors tickets and agents into
// Redis keys; mutations are pushed onto a command list it consumes.
package ticketstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/caredesk/slaflow/pkg/models"
)

const (
	ticketKeyPrefix = "slaflow:ticket:"
	agentsKey       = "slaflow:agents"
	commandQueue    = "slaflow:ticket-commands"
)

// RedisTicketStore implements protocol.TicketStore against the Redis
// mirror maintained by the ticket system.
type RedisTicketStore struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisTicketStore(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*RedisTicketStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTicketStore{
		client: client,
		logger: logger.With("module", "ticket_store"),
	}, nil
}

func (s *RedisTicketStore) Ticket(ctx context.Context, id string) (*models.Ticket, error) {
	payload, err := s.client.Get(ctx, ticketKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("ticket %s not found", id)
		}

		return nil, fmt.Errorf("failed to read ticket %s: %w", id, err)
	}

	var ticket models.Ticket
	if err := json.Unmarshal(payload, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket %s: %w", id, err)
	}

	return &ticket, nil
}

func (s *RedisTicketStore) UpdateField(ctx context.Context, id, field, value string) error {
	return s.pushCommand(ctx, map[string]any{
		"action":    "update_field",
		"ticket_id": id,
		"field":     field,
		"value":     value,
	})
}

func (s *RedisTicketStore) Assign(ctx context.Context, id, agentID string) error {
	return s.pushCommand(ctx, map[string]any{
		"action":    "assign",
		"ticket_id": id,
		"agent_id":  agentID,
	})
}

func (s *RedisTicketStore) AddNote(ctx context.Context, id, note string, internal bool) error {
	return s.pushCommand(ctx, map[string]any{
		"action":    "add_note",
		"ticket_id": id,
		"note":      note,
		"internal":  internal,
	})
}

func (s *RedisTicketStore) Agents(ctx context.Context) ([]*models.Agent, error) {
	payload, err := s.client.Get(ctx, agentsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*models.Agent{}, nil
		}

		return nil, fmt.Errorf("failed to read agents: %w", err)
	}

	var agents []*models.Agent
	if err := json.Unmarshal(payload, &agents); err != nil {
		return nil, fmt.Errorf("failed to decode agents: %w", err)
	}

	return agents, nil
}

func (s *RedisTicketStore) Close() error {
	return s.client.Close()
}

// Client exposes the underlying Redis client so sibling components can
// share the connection.
func (s *RedisTicketStore) Client() redis.UniversalClient {
	return s.client
}

func (s *RedisTicketStore) pushCommand(ctx context.Context, command map[string]any) error {
	command["issued_at"] = time.Now().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(command)
	if err != nil {
		return err
	}

	if err := s.client.RPush(ctx, commandQueue, payload).Err(); err != nil {
		return fmt.Errorf("failed to push ticket command: %w", err)
	}

	s.logger.DebugContext(ctx, "Pushed ticket command", "action", command["action"], "ticket_id", command["ticket_id"])

	return nil
}
