package mongoinfra

import (
	"context"
	"fmt"

	"github.com/devconnect-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepo struct {
	coll *mongo.Collection
}

func NewPostRepo(db *mongo.Database) *PostRepo {
	return &PostRepo{coll: db.Collection(collPosts)}
}

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	p.Recount()
	_, err := r.coll.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("post %s already exists: %w", p.PostID, domain.ErrConflict)
	}
	return err
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*domain.Post, error) {
	var p domain.Post
	if err := r.coll.FindOne(ctx, byID(postID)).Decode(&p); err != nil {
		return nil, notFound("post", err)
	}
	return &p, nil
}

// Save replaces the post if its stored version still matches p.Version.
func (r *PostRepo) Save(ctx context.Context, p *domain.Post) error {
	p.Recount()
	expected := p.Version
	p.Version++
	res, err := r.coll.ReplaceOne(ctx, versionFilter(p.PostID, expected), p)
	if err != nil {
		p.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		p.Version = expected
		return fmt.Errorf("post %s changed concurrently: %w", p.PostID, domain.ErrConflict)
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	res, err := r.coll.DeleteOne(ctx, byID(postID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PostRepo) Feed(ctx context.Context, limit int, cursor string) ([]domain.Post, string, error) {
	// Fetch one extra to learn whether another page exists.
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit) + 1)
	cur, err := r.coll.Find(ctx, feedFilter(cursor), opts)
	if err != nil {
		return nil, "", err
	}
	var posts []domain.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, "", err
	}
	next := ""
	if len(posts) > limit {
		posts = posts[:limit]
		next = posts[limit-1].PostID
	}
	return posts, next, nil
}

func (r *PostRepo) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	return r.find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
}

func (r *PostRepo) Search(ctx context.Context, q string, limit int) ([]domain.Post, error) {
	return r.find(ctx, bson.M{"content": containsFold(q)}, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r *PostRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Post, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
