package message

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devconnect-api/internal/domain"
	"github.com/devconnect-api/internal/pkg/id"
	"github.com/devconnect-api/internal/realtime"
)

const maxContentLen = 2000

type Service interface {
	Send(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error)
	Thread(ctx context.Context, userID, otherID string) ([]domain.Message, error)
	Conversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	MarkThreadRead(ctx context.Context, readerID, otherID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, messageID string) error
	DeleteConversation(ctx context.Context, userID, otherID string) (int, error)
}

type messageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	Thread(ctx context.Context, a, b string) ([]domain.Message, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Message, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkThreadRead(ctx context.Context, readerID, otherID string) (int, error)
	Delete(ctx context.Context, messageID string) error
	DeleteThread(ctx context.Context, a, b string) (int, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
}

type relay interface {
	Send(ctx context.Context, userID, event string, payload any) bool
}

type service struct {
	repo  messageStore
	users userStore
	relay relay
}

type ServiceDeps struct {
	MessageRepo messageStore
	UserRepo    userStore
	Relay       relay
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.MessageRepo, users: deps.UserRepo, relay: deps.Relay}
}

// Send persists the message and then relays it to the receiver if they are
// connected. An offline receiver is not an error; the message waits unread.
func (s *service) Send(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case receiverID == "":
		return nil, fmt.Errorf("receiver is required: %w", domain.ErrBadRequest)
	case content == "":
		return nil, fmt.Errorf("content is required: %w", domain.ErrBadRequest)
	case utf8.RuneCountInString(content) > maxContentLen:
		return nil, fmt.Errorf("content exceeds %d characters: %w", maxContentLen, domain.ErrBadRequest)
	case receiverID == senderID:
		return nil, fmt.Errorf("cannot message yourself: %w", domain.ErrBadRequest)
	}
	if _, err := s.users.Get(ctx, receiverID); err != nil {
		return nil, err
	}
	m := &domain.Message{
		MessageID:      id.New(),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		ConversationID: domain.ConversationID(senderID, receiverID),
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}
	s.relay.Send(ctx, receiverID, realtime.EventReceiveMessage, m)
	return m, nil
}

func (s *service) Thread(ctx context.Context, userID, otherID string) ([]domain.Message, error) {
	msgs, err := s.repo.Thread(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// Conversations folds the user's messages into one row per partner. The
// store returns newest first, so the first message seen per partner is the
// latest one and row order follows.
func (s *service) Conversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	msgs, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	convs := []domain.Conversation{}
	index := map[string]int{}
	var partners []string
	for _, m := range msgs {
		partner := m.Partner(userID)
		i, ok := index[partner]
		if !ok {
			i = len(convs)
			index[partner] = i
			partners = append(partners, partner)
			convs = append(convs, domain.Conversation{
				Partner:       domain.UserSummary{UserID: partner},
				LastMessage:   m,
				LastMessageAt: m.CreatedAt,
			})
		}
		if m.ReceiverID == userID && !m.IsRead {
			convs[i].UnreadCount++
		}
	}
	if len(partners) == 0 {
		return convs, nil
	}
	users, err := s.users.GetMany(ctx, partners)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if j, ok := index[users[i].UserID]; ok {
			convs[j].Partner = users[i].Summary()
		}
	}
	return convs, nil
}

func (s *service) MarkThreadRead(ctx context.Context, readerID, otherID string) (int, error) {
	return s.repo.MarkThreadRead(ctx, readerID, otherID)
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID, messageID string) error {
	m, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != userID {
		return fmt.Errorf("only the sender can delete a message: %w", domain.ErrForbidden)
	}
	return s.repo.Delete(ctx, messageID)
}

func (s *service) DeleteConversation(ctx context.Context, userID, otherID string) (int, error) {
	if otherID == "" || otherID == userID {
		return 0, fmt.Errorf("invalid conversation partner: %w", domain.ErrBadRequest)
	}
	return s.repo.DeleteThread(ctx, userID, otherID)
}
