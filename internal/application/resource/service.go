package resource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/devconnect-api/internal/application/notification"
	"github.com/devconnect-api/internal/domain"
	"github.com/devconnect-api/internal/pkg/id"
	"github.com/devconnect-api/internal/pkg/upload"
)

type UploadInput struct {
	UploaderID string
	Title      string
	Category   string
	File       *domain.FileUpload
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Resource, error)
	List(ctx context.Context) ([]domain.Resource, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Resource, error)
	Get(ctx context.Context, resourceID string) (*domain.Resource, error)
	DownloadURL(ctx context.Context, resourceID string) (string, error)
	Delete(ctx context.Context, resourceID, requesterID string) error
}

type resourceStore interface {
	Create(ctx context.Context, r *domain.Resource) error
	Get(ctx context.Context, resourceID string) (*domain.Resource, error)
	Delete(ctx context.Context, resourceID string) error
	List(ctx context.Context) ([]domain.Resource, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Resource, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, in notification.NotifyInput) (*domain.Notification, error)
}

type service struct {
	repo     resourceStore
	users    userStore
	objects  objectStore
	notifier notifier
	log      *slog.Logger
	maxBytes int64
}

type ServiceDeps struct {
	ResourceRepo   resourceStore
	UserRepo       userStore
	ObjectStore    objectStore
	Notifier       notifier
	Logger         *slog.Logger
	MaxUploadBytes int64
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &service{
		repo:     deps.ResourceRepo,
		users:    deps.UserRepo,
		objects:  deps.ObjectStore,
		notifier: deps.Notifier,
		log:      log,
		maxBytes: deps.MaxUploadBytes,
	}
}

// Upload stores the file then the record, and tells every follower of the
// uploader about it.
func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Resource, error) {
	title := strings.TrimSpace(input.Title)
	category := strings.TrimSpace(input.Category)
	if title == "" || category == "" || input.File == nil {
		return nil, fmt.Errorf("title, category and file are required: %w", domain.ErrBadRequest)
	}
	uploader, err := s.users.Get(ctx, input.UploaderID)
	if err != nil {
		return nil, err
	}
	checked, err := upload.Sniff(input.File.Body, input.File.Size, s.maxBytes, upload.ResourceTypes)
	if err != nil {
		return nil, fmt.Errorf("file: %v: %w", err, domain.ErrBadRequest)
	}
	resourceID := id.New()
	key := path.Join("resources", input.UploaderID, resourceID+checked.Extension)
	if err := s.objects.Upload(ctx, key, input.File.Body, checked.ContentType, input.File.Size); err != nil {
		return nil, err
	}
	r := &domain.Resource{
		ResourceID:  resourceID,
		UserID:      input.UploaderID,
		Title:       title,
		Category:    category,
		FileKey:     key,
		ContentType: checked.ContentType,
		Size:        input.File.Size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.log.Warn("resource: delete orphaned object", "key", key, "error", delErr)
		}
		return nil, err
	}
	sum := uploader.Summary()
	r.Author = &sum

	for _, followerID := range uploader.Followers {
		_, err := s.notifier.Notify(ctx, notification.NotifyInput{
			RecipientID: followerID,
			SenderID:    input.UploaderID,
			Type:        domain.NotificationResource,
			ResourceID:  r.ResourceID,
		})
		if err != nil {
			s.log.Warn("resource: notify follower", "follower_id", followerID, "error", err)
		}
	}
	return r, nil
}

func (s *service) List(ctx context.Context) ([]domain.Resource, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, list)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.Resource, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, list)
}

func (s *service) Get(ctx context.Context, resourceID string) (*domain.Resource, error) {
	r, err := s.repo.Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	list, err := s.withAuthors(ctx, []domain.Resource{*r})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *service) DownloadURL(ctx context.Context, resourceID string) (string, error) {
	r, err := s.repo.Get(ctx, resourceID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, r.FileKey)
}

func (s *service) Delete(ctx context.Context, resourceID, requesterID string) error {
	r, err := s.repo.Get(ctx, resourceID)
	if err != nil {
		return err
	}
	if r.UserID != requesterID {
		return fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, resourceID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, r.FileKey); err != nil {
		s.log.Warn("resource: delete object", "key", r.FileKey, "error", err)
	}
	return nil
}

func (s *service) withAuthors(ctx context.Context, list []domain.Resource) ([]domain.Resource, error) {
	if len(list) == 0 {
		return []domain.Resource{}, nil
	}
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.UserSummary, len(users))
	for i := range users {
		byID[users[i].UserID] = users[i].Summary()
	}
	for i := range list {
		if sum, ok := byID[list[i].UserID]; ok {
			list[i].Author = &sum
		}
	}
	return list, nil
}
