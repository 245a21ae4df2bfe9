package mongoinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/devconnect-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepo struct {
	coll *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) *NotificationRepo {
	return &NotificationRepo{coll: db.Collection(collNotifications)}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	_, err := r.coll.InsertOne(ctx, n)
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.coll.FindOne(ctx, byID(notificationID)).Decode(&n); err != nil {
		return nil, notFound("notification", err)
	}
	return &n, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	var out []domain.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, unreadNotificationsFilter(userID))
	return int(n), err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	res, err := r.coll.UpdateOne(ctx, byID(notificationID), markRead())
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.coll.UpdateMany(ctx, unreadNotificationsFilter(userID), markRead())
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func markRead() bson.M {
	return bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}}
}
