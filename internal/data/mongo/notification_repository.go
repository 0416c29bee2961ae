// Package mongo provides MongoDB implementations of the document-store
// repositories. The notification audit trail lives here rather than in
// PostgreSQL so the write path of the wallet core never depends on it.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tapband-wallet/internal/domain/notification"
)

const (
	// NotificationCollectionName is the name of the notification collection in MongoDB
	NotificationCollectionName = "notifications"
)

// NotificationRepository implements the notification.Repository interface for MongoDB
type NotificationRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewNotificationRepository creates a new MongoDB notification repository
func NewNotificationRepository(logger *slog.Logger, db *mongo.Database) notification.Repository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a notification document. Redelivered events carry the same ID,
// so an existing document with the ID makes the insert a no-op rather than a
// duplicate.
func (r *NotificationRepository) Insert(ctx context.Context, n *notification.Notification) error {
	collection := r.db.Collection(NotificationCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"id": n.ID})
	if err != nil {
		r.logger.Error("Failed to check for existing notification",
			"notification_id", n.ID,
			"error", err)
		return fmt.Errorf("failed to check for existing notification: %w", err)
	}
	if count > 0 {
		r.logger.Debug("Notification already stored, skipping insert",
			"notification_id", n.ID)
		return nil
	}

	_, err = collection.InsertOne(ctx, n)
	if err != nil {
		r.logger.Error("Failed to insert notification",
			"notification_id", n.ID,
			"kind", string(n.Kind),
			"error", err)
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// CountByAccount counts the stored notifications for an account
func (r *NotificationRepository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	collection := r.db.Collection(NotificationCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"account_id": accountID})
	if err != nil {
		r.logger.Error("Failed to count notifications",
			"account_id", accountID,
			"error", err)
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	return count, nil
}
