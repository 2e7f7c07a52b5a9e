package ticketstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/caredesk/slaflow/pkg/models"
)

const notificationQueue = "slaflow:notifications"

// RedisNotificationSink implements protocol.NotificationSink by pushing
// notifications onto a Redis list consumed by the delivery service.
type RedisNotificationSink struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisNotificationSink(client redis.UniversalClient, logger *slog.Logger) *RedisNotificationSink {
	return &RedisNotificationSink{
		client: client,
		logger: logger.With("module", "notification_sink"),
	}
}

func (s *RedisNotificationSink) Send(ctx context.Context, notification models.Notification) error {
	payload, err := json.Marshal(map[string]any{
		"recipient": notification.Recipient,
		"subject":   notification.Subject,
		"body":      notification.Body,
		"priority":  notification.Priority,
		"channel":   notification.Channel,
		"queued_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if err := s.client.RPush(ctx, notificationQueue, payload).Err(); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}

	s.logger.DebugContext(ctx, "Queued notification",
		"recipient", notification.Recipient, "channel", notification.Channel)

	return nil
}
