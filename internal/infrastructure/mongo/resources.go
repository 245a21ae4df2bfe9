package mongoinfra

import (
	"context"
	"fmt"

	"github.com/devconnect-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResourceRepo struct {
	coll *mongo.Collection
}

func NewResourceRepo(db *mongo.Database) *ResourceRepo {
	return &ResourceRepo{coll: db.Collection(collResources)}
}

func (r *ResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	_, err := r.coll.InsertOne(ctx, res)
	return err
}

func (r *ResourceRepo) Get(ctx context.Context, resourceID string) (*domain.Resource, error) {
	var res domain.Resource
	if err := r.coll.FindOne(ctx, byID(resourceID)).Decode(&res); err != nil {
		return nil, notFound("resource", err)
	}
	return &res, nil
}

func (r *ResourceRepo) Delete(ctx context.Context, resourceID string) error {
	out, err := r.coll.DeleteOne(ctx, byID(resourceID))
	if err != nil {
		return err
	}
	if out.DeletedCount == 0 {
		return fmt.Errorf("resource: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ResourceRepo) List(ctx context.Context) ([]domain.Resource, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (r *ResourceRepo) ListByUser(ctx context.Context, userID string) ([]domain.Resource, error) {
	return r.find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
}

func (r *ResourceRepo) Search(ctx context.Context, q string, limit int) ([]domain.Resource, error) {
	re := containsFold(q)
	filter := bson.M{"$or": bson.A{bson.M{"title": re}, bson.M{"category": re}}}
	return r.find(ctx, filter, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r *ResourceRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Resource, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []domain.Resource
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
