package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/devconnect-api/internal/domain"
)

const (
	defaultLimit = 20
	maxQueryLen  = 100
)

// Result groups matches by kind. Every slice is non-nil.
type Result struct {
	Users     []domain.UserSummary `json:"users"`
	Posts     []domain.Post        `json:"posts"`
	Resources []domain.Resource    `json:"resources"`
}

type Service interface {
	Search(ctx context.Context, query string) (*Result, error)
}

type userSearcher interface {
	Search(ctx context.Context, q string, limit int) ([]domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
}

type postSearcher interface {
	Search(ctx context.Context, q string, limit int) ([]domain.Post, error)
}

type resourceSearcher interface {
	Search(ctx context.Context, q string, limit int) ([]domain.Resource, error)
}

type service struct {
	users     userSearcher
	posts     postSearcher
	resources resourceSearcher
	limit     int
}

type ServiceDeps struct {
	UserRepo     userSearcher
	PostRepo     postSearcher
	ResourceRepo resourceSearcher
	// Limit caps matches per kind. Zero means the default.
	Limit int
}

func NewService(deps ServiceDeps) Service {
	limit := deps.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	return &service{users: deps.UserRepo, posts: deps.PostRepo, resources: deps.ResourceRepo, limit: limit}
}

// Search does a case-insensitive substring match over user names, post
// content and resource titles and categories.
func (s *service) Search(ctx context.Context, query string) (*Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrBadRequest)
	}
	if len(q) > maxQueryLen {
		return nil, fmt.Errorf("query exceeds %d characters: %w", maxQueryLen, domain.ErrBadRequest)
	}

	users, err := s.users.Search(ctx, q, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	posts, err := s.posts.Search(ctx, q, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	resources, err := s.resources.Search(ctx, q, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search resources: %w", err)
	}

	res := &Result{
		Users:     make([]domain.UserSummary, 0, len(users)),
		Posts:     posts,
		Resources: resources,
	}
	for i := range users {
		res.Users = append(res.Users, users[i].Summary())
	}
	if res.Posts == nil {
		res.Posts = []domain.Post{}
	}
	if res.Resources == nil {
		res.Resources = []domain.Resource{}
	}
	if err := s.attachAuthors(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) attachAuthors(ctx context.Context, res *Result) error {
	var ids []string
	for _, p := range res.Posts {
		ids = append(ids, p.UserID)
	}
	for _, r := range res.Resources {
		ids = append(ids, r.UserID)
	}
	if len(ids) == 0 {
		return nil
	}
	authors, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.UserSummary, len(authors))
	for i := range authors {
		byID[authors[i].UserID] = authors[i].Summary()
	}
	for i := range res.Posts {
		if sum, ok := byID[res.Posts[i].UserID]; ok {
			res.Posts[i].Author = &sum
		}
	}
	for i := range res.Resources {
		if sum, ok := byID[res.Resources[i].UserID]; ok {
			res.Resources[i].Author = &sum
		}
	}
	return nil
}
