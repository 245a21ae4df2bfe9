package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/devconnect-api/internal/domain"
	"github.com/devconnect-api/internal/pkg/id"
	"github.com/devconnect-api/internal/realtime"
)

const listLimit = 100

type Service interface {
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Notify(ctx context.Context, in NotifyInput) (*domain.Notification, error)
}

// NotifyInput describes a notification to create. PostID and ResourceID are
// optional references.
type NotifyInput struct {
	RecipientID string
	SenderID    string
	Type        domain.NotificationType
	PostID      string
	ResourceID  string
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
}

type relay interface {
	Send(ctx context.Context, userID, event string, payload any) bool
}

type service struct {
	repo  notificationStore
	users userStore
	relay relay
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	UserRepo         userStore
	Relay            relay
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.NotificationRepo, users: deps.UserRepo, relay: deps.Relay}
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID, listLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.SenderID)
	}
	senders, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.UserSummary, len(senders))
	for i := range senders {
		byID[senders[i].UserID] = senders[i].Summary()
	}
	for i := range list {
		if sum, ok := byID[list[i].SenderID]; ok {
			list[i].Sender = &sum
		}
	}
	return list, nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead flips every unread notification, then tells the user's open
// sessions so badges clear without a refetch.
func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.relay.Send(ctx, userID, realtime.EventNotificationsRead, map[string]any{"user_id": userID, "count": n})
	return n, nil
}

// Notify persists a notification and pushes it to the recipient if online.
// Notifying yourself is a no-op and returns nil, nil.
func (s *service) Notify(ctx context.Context, in NotifyInput) (*domain.Notification, error) {
	if in.RecipientID == "" || in.RecipientID == in.SenderID {
		return nil, nil
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("notification type %q: %w", in.Type, domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         in.RecipientID,
		SenderID:       in.SenderID,
		Type:           in.Type,
		PostID:         in.PostID,
		ResourceID:     in.ResourceID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	if sender, err := s.users.Get(ctx, in.SenderID); err == nil {
		sum := sender.Summary()
		n.Sender = &sum
	}
	s.relay.Send(ctx, in.RecipientID, realtime.EventReceiveNotification, n)
	return n, nil
}
