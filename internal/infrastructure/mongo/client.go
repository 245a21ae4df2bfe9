// Package mongoinfra is the MongoDB implementation of the repositories.
// Every collection uses the ULID string id as _id, so sorting on _id orders
// documents by creation time.
package mongoinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/devconnect-api/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers         = "users"
	collPosts         = "posts"
	collResources     = "resources"
	collNotifications = "notifications"
	collMessages      = "messages"
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, client.Database(cfg.MongoDatabase), nil
}
