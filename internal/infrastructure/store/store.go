// Package store opens the persistence backend selected by STORE_DRIVER.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/devconnect-api/internal/config"
	"github.com/devconnect-api/internal/infrastructure/dynamo"
	mongoinfra "github.com/devconnect-api/internal/infrastructure/mongo"
	transporthttp "github.com/devconnect-api/internal/transport/http"
)

// Backend bundles the repositories of one store driver.
type Backend struct {
	Driver        string
	Users         transporthttp.UserRepository
	Posts         transporthttp.PostRepository
	Resources     transporthttp.ResourceRepository
	Notifications transporthttp.NotificationRepository
	Messages      transporthttp.MessageRepository

	dynamoClient *dynamodb.Client
	tables       config.DynamoTables
	mongoClient  *mongo.Client
	mongoDB      *mongo.Database
}

// Open connects to the configured driver. It does not create tables or
// indexes; call Bootstrap for that.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		t := cfg.DynamoTables
		return &Backend{
			Driver:        cfg.StoreDriver,
			Users:         dynamo.NewUserRepo(client, t.Users),
			Posts:         dynamo.NewPostRepo(client, t.Posts),
			Resources:     dynamo.NewResourceRepo(client, t.Resources),
			Notifications: dynamo.NewNotificationRepo(client, t.Notifications),
			Messages:      dynamo.NewMessageRepo(client, t.Messages),
			dynamoClient:  client,
			tables:        t,
		}, nil

	case config.StoreMongo:
		client, db, err := mongoinfra.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:        cfg.StoreDriver,
			Users:         mongoinfra.NewUserRepo(db),
			Posts:         mongoinfra.NewPostRepo(db),
			Resources:     mongoinfra.NewResourceRepo(db),
			Notifications: mongoinfra.NewNotificationRepo(db),
			Messages:      mongoinfra.NewMessageRepo(db),
			mongoClient:   client,
			mongoDB:       db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, config.StoreDynamo, config.StoreMongo)
	}
}

// Bootstrap creates missing tables or indexes. Safe on every startup.
func (b *Backend) Bootstrap(ctx context.Context, log *slog.Logger) error {
	log.Info("bootstrapping store", "driver", b.Driver)
	if b.dynamoClient != nil {
		dynamo.Bootstrap(ctx, b.dynamoClient, b.tables)
		return nil
	}
	return mongoinfra.Bootstrap(ctx, b.mongoDB)
}

// Close releases the driver connection.
func (b *Backend) Close(ctx context.Context) error {
	if b.mongoClient != nil {
		return b.mongoClient.Disconnect(ctx)
	}
	return nil
}

// Deps fills the storage half of the router dependencies.
func (b *Backend) Deps() *transporthttp.Deps {
	return &transporthttp.Deps{
		UserRepo:         b.Users,
		PostRepo:         b.Posts,
		ResourceRepo:     b.Resources,
		NotificationRepo: b.Notifications,
		MessageRepo:      b.Messages,
	}
}
