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

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(collUsers)}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	// $addToSet fails on a null field, so the sets start out empty.
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("user %s already exists: %w", u.Email, domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, byID(userID)).Decode(&u); err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

func (r *UserRepo) GetMany(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) AddFollow(ctx context.Context, followerID, followeeID string) error {
	if err := r.updateSet(ctx, "$addToSet", followerID, "following", followeeID); err != nil {
		return err
	}
	return r.updateSet(ctx, "$addToSet", followeeID, "followers", followerID)
}

func (r *UserRepo) RemoveFollow(ctx context.Context, followerID, followeeID string) error {
	if err := r.updateSet(ctx, "$pull", followerID, "following", followeeID); err != nil {
		return err
	}
	return r.updateSet(ctx, "$pull", followeeID, "followers", followerID)
}

func (r *UserRepo) updateSet(ctx context.Context, op, userID, field, member string) error {
	res, err := r.coll.UpdateOne(ctx, byID(userID), bson.M{
		op:     bson.M{field: member},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) Search(ctx context.Context, q string, limit int) ([]domain.User, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(newestFirst)
	cur, err := r.coll.Find(ctx, bson.M{"name": containsFold(q)}, opts)
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
