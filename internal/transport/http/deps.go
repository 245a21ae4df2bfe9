package http

import (
	"context"
	"io"

	"github.com/devconnect-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
	AddFollow(ctx context.Context, followerID, followeeID string) error
	RemoveFollow(ctx context.Context, followerID, followeeID string) error
	Search(ctx context.Context, q string, limit int) ([]domain.User, error)
}

// PostRepository is the minimal interface the router requires from a post store.
// Save must fail with domain.ErrConflict when the stored version moved on.
type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Save(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, postID string) error
	Feed(ctx context.Context, limit int, cursor string) ([]domain.Post, string, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
	Search(ctx context.Context, q string, limit int) ([]domain.Post, error)
}

// ResourceRepository is the minimal interface the router requires from a resource store.
type ResourceRepository interface {
	Create(ctx context.Context, r *domain.Resource) error
	Get(ctx context.Context, resourceID string) (*domain.Resource, error)
	Delete(ctx context.Context, resourceID string) error
	List(ctx context.Context) ([]domain.Resource, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Resource, error)
	Search(ctx context.Context, q string, limit int) ([]domain.Resource, error)
}

// NotificationRepository is the minimal interface the router requires from a notification store.
type NotificationRepository interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// MessageRepository is the minimal interface the router requires from a message store.
type MessageRepository interface {
	Put(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	Thread(ctx context.Context, a, b string) ([]domain.Message, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Message, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkThreadRead(ctx context.Context, readerID, otherID string) (int, error)
	Delete(ctx context.Context, messageID string) error
	DeleteThread(ctx context.Context, a, b string) (int, error)
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}
