// Package notification_worker consumes wallet notification events from Kafka
// and persists them to the MongoDB audit store. Redelivered events are
// deduplicated by notification ID, so at-least-once delivery is safe.
package notification_worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tapband-wallet/internal/domain/notification"
	"github.com/tapband-wallet/internal/platform/messaging/producers"
)

// NotificationEventHandler handles incoming notification messages from Kafka
type NotificationEventHandler struct {
	repo     notification.Repository
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

// NewNotificationEventHandler creates a new handler
func NewNotificationEventHandler(
	logger *slog.Logger,
	repo notification.Repository,
	producer producers.DeadLetterPublisher,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// HandleMessage processes Kafka messages
func (h *NotificationEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event notification.Notification
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal notification from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received notification for audit store",
		"notification_id", event.ID,
		"kind", event.Kind,
		"account_id", event.AccountID,
	)

	if err := h.repo.Insert(ctx, &event); err != nil {
		logger.Error("Failed to persist notification",
			"notification_id", event.ID,
			"error", err,
		)
		return fmt.Errorf("persisting notification %s failed: %w", event.ID, err)
	}

	logger.Info("Notification persisted", "notification_id", event.ID)
	return nil // Success, commit offset
}
