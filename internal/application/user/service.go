package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/devconnect-api/internal/application/notification"
	"github.com/devconnect-api/internal/domain"
	"github.com/devconnect-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.PublicUser, error)
	Profile(ctx context.Context, userID string) (*domain.Profile, error)
	Followers(ctx context.Context, userID string) ([]domain.UserSummary, error)
	Following(ctx context.Context, userID string) ([]domain.UserSummary, error)
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
	AddFollow(ctx context.Context, followerID, followeeID string) error
	RemoveFollow(ctx context.Context, followerID, followeeID string) error
}

type postLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
}

type resourceLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Resource, error)
}

type notifier interface {
	Notify(ctx context.Context, in notification.NotifyInput) (*domain.Notification, error)
}

type service struct {
	repo      userStore
	posts     postLister
	resources resourceLister
	notifier  notifier
	log       *slog.Logger
}

type ServiceDeps struct {
	UserRepo     userStore
	PostRepo     postLister
	ResourceRepo resourceLister
	Notifier     notifier
	Logger       *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &service{
		repo:      deps.UserRepo,
		posts:     deps.PostRepo,
		resources: deps.ResourceRepo,
		notifier:  deps.Notifier,
		log:       log,
	}
}

// Register provisions an account. It backs the operator CLI; there is no
// public sign-up endpoint.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	gender := req.Gender
	if gender == "" {
		gender = domain.GenderOther
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Bio:          req.Bio,
		Gender:       gender,
		Followers:    []string{},
		Following:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) lookup(ctx context.Context, userID string) (*domain.User, error) {
	if !id.Valid(userID) {
		return nil, fmt.Errorf("malformed user id: %w", domain.ErrBadRequest)
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.PublicUser, error) {
	u, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *service) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	u, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resources, err := s.resources.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	if resources == nil {
		resources = []domain.Resource{}
	}
	sum := u.Summary()
	for i := range posts {
		posts[i].Author = &sum
	}
	for i := range resources {
		resources[i].Author = &sum
	}
	return &domain.Profile{User: u.Public(), Posts: posts, Resources: resources}, nil
}

func (s *service) Followers(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	u, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, u.Followers)
}

func (s *service) Following(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	u, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, u.Following)
}

// Follow records the relationship on both users. The two updates are not
// atomic as a pair; the follower side is written first.
func (s *service) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return fmt.Errorf("cannot follow yourself: %w", domain.ErrBadRequest)
	}
	if _, err := s.lookup(ctx, targetID); err != nil {
		return err
	}
	follower, err := s.repo.Get(ctx, followerID)
	if err != nil {
		return err
	}
	if follower.IsFollowing(targetID) {
		return fmt.Errorf("already following: %w", domain.ErrBadRequest)
	}
	if err := s.repo.AddFollow(ctx, followerID, targetID); err != nil {
		return err
	}
	if _, err := s.notifier.Notify(ctx, notification.NotifyInput{
		RecipientID: targetID,
		SenderID:    followerID,
		Type:        domain.NotificationFollow,
	}); err != nil {
		s.log.Warn("user: notify follow", "follower_id", followerID, "target_id", targetID, "error", err)
	}
	return nil
}

func (s *service) Unfollow(ctx context.Context, followerID, targetID string) error {
	if _, err := s.lookup(ctx, targetID); err != nil {
		return err
	}
	follower, err := s.repo.Get(ctx, followerID)
	if err != nil {
		return err
	}
	if !follower.IsFollowing(targetID) {
		return fmt.Errorf("not following: %w", domain.ErrBadRequest)
	}
	return s.repo.RemoveFollow(ctx, followerID, targetID)
}

func (s *service) summaries(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	out := make([]domain.UserSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}
