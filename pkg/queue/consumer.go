// Package queue consumes ticket events pushed by the ticket system
// onto a Redis list and hands them to the workflow dispatcher.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/caredesk/slaflow/pkg/events"
)

// Handler receives decoded ticket events.
type Handler interface {
	OnTicketCreated(ctx context.Context, event events.TicketCreated) error
	OnTicketUpdated(ctx context.Context, event events.TicketUpdated) error
}

// Consumer pops JSON-encoded ticket events from a Redis list. Each
// payload is a BaseEvent envelope; the type field selects the decoder.
type Consumer struct {
	Queue      string
	Connection map[string]string

	client  redis.UniversalClient
	handler Handler
	logger  *slog.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewConsumer(queue string, connection map[string]string, logger *slog.Logger) (*Consumer, error) {
	if queue == "" {
		return nil, errors.New("queue name is required")
	}

	return &Consumer{
		Queue:      queue,
		Connection: connection,
		stopCh:     make(chan struct{}),
		logger:     logger.With("module", "queue_consumer", "queue", queue),
	}, nil
}

func (c *Consumer) Start(ctx context.Context, handler Handler) error {
	c.logger.InfoContext(ctx, "Starting queue consumer")
	c.handler = handler

	if err := c.initializeClient(ctx); err != nil {
		return fmt.Errorf("failed to initialize queue client: %w", err)
	}

	c.wg.Add(1)

	go c.consume(ctx)

	return nil
}

func (c *Consumer) initializeClient(ctx context.Context) error {
	addr := c.Connection["addr"]
	if addr == "" {
		addr = "localhost:6379"
	}

	password := c.Connection["password"]
	db := 0

	if dbStr := c.Connection["db"]; dbStr != "" {
		if _, err := fmt.Sscanf(dbStr, "%d", &db); err != nil {
			return fmt.Errorf("invalid db value: %w", err)
		}
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "db", db)

	return nil
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := c.processMessage(ctx); err != nil {
				c.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context) error {
	result, err := c.client.BLPop(ctx, 1*time.Second, c.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	return c.handleMessage(ctx, []byte(result[1]))
}

func (c *Consumer) handleMessage(ctx context.Context, payload []byte) error {
	var envelope events.BaseEvent
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	switch envelope.Type {
	case events.TicketCreatedEvent:
		var event events.TicketCreated
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("failed to decode ticket created event: %w", err)
		}

		return c.handler.OnTicketCreated(ctx, event)
	case events.TicketUpdatedEvent:
		var event events.TicketUpdated
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("failed to decode ticket updated event: %w", err)
		}

		return c.handler.OnTicketUpdated(ctx, event)
	default:
		c.logger.WarnContext(ctx, "Ignoring event with unknown type", "event_type", envelope.Type)

		return nil
	}
}

func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Stopping queue consumer")

	close(c.stopCh)
	c.wg.Wait()

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
