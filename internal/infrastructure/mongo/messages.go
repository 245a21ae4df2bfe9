package mongoinfra

import (
	"context"
	"fmt"

	"github.com/devconnect-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo struct {
	coll *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{coll: db.Collection(collMessages)}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *MessageRepo) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	var m domain.Message
	if err := r.coll.FindOne(ctx, byID(messageID)).Decode(&m); err != nil {
		return nil, notFound("message", err)
	}
	return &m, nil
}

func (r *MessageRepo) Thread(ctx context.Context, a, b string) ([]domain.Message, error) {
	return r.find(ctx, threadFilter(a, b), options.Find().SetSort(oldestFirst))
}

func (r *MessageRepo) ListForUser(ctx context.Context, userID string) ([]domain.Message, error) {
	return r.find(ctx, involvingFilter(userID), options.Find().SetSort(newestFirst))
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, unreadMessagesFilter(userID))
	return int(n), err
}

func (r *MessageRepo) MarkThreadRead(ctx context.Context, readerID, otherID string) (int, error) {
	res, err := r.coll.UpdateMany(ctx, unreadThreadFilter(readerID, otherID), bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func (r *MessageRepo) Delete(ctx context.Context, messageID string) error {
	res, err := r.coll.DeleteOne(ctx, byID(messageID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("message: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *MessageRepo) DeleteThread(ctx context.Context, a, b string) (int, error) {
	res, err := r.coll.DeleteMany(ctx, threadFilter(a, b))
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (r *MessageRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Message, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []domain.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
