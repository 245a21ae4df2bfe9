package mongoinfra

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collPosts: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: -1}}},
		},
		collResources: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: -1}}},
		},
		collNotifications: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
		},
		collMessages: {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "is_read", Value: 1}}},
		},
	}
}

// Bootstrap creates the secondary indexes. CreateMany is a no-op for
// indexes that already exist with the same definition.
func Bootstrap(ctx context.Context, db *mongo.Database) error {
	for coll, models := range indexModels() {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		slog.Info("ensured indexes", "collection", coll, "indexes", names)
	}
	return nil
}
