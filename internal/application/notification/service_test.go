package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/devconnect-api/internal/domain"
	"github.com/devconnect-api/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockNotificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationStore) MarkRead(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
func (m *mockNotificationStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetMany(ctx context.Context, ids []string) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockRelay struct{ mock.Mock }

func (m *mockRelay) Send(ctx context.Context, userID, event string, payload any) bool {
	return m.Called(ctx, userID, event, payload).Bool(0)
}

func newService(ns *mockNotificationStore, us *mockUserStore, rl *mockRelay) Service {
	return NewService(ServiceDeps{NotificationRepo: ns, UserRepo: us, Relay: rl})
}

// --- Notify ---

func TestNotify_PersistsThenRelays(t *testing.T) {
	ns, us, rl := &mockNotificationStore{}, &mockUserStore{}, &mockRelay{}
	ns.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "bob" && n.SenderID == "alice" && n.Type == domain.NotificationFollow && !n.IsRead
	})).Return(nil)
	us.On("Get", mock.Anything, "alice").Return(&domain.User{UserID: "alice", Name: "Alice"}, nil)
	rl.On("Send", mock.Anything, "bob", realtime.EventReceiveNotification, mock.Anything).Return(false)

	n, err := newService(ns, us, rl).Notify(context.Background(), NotifyInput{
		RecipientID: "bob", SenderID: "alice", Type: domain.NotificationFollow,
	})

	require.NoError(t, err)
	require.NotNil(t, n.Sender)
	assert.Equal(t, "Alice", n.Sender.Name)
	ns.AssertExpectations(t)
	rl.AssertExpectations(t)
}

func TestNotify_SelfIsNoop(t *testing.T) {
	ns, rl := &mockNotificationStore{}, &mockRelay{}
	n, err := newService(ns, &mockUserStore{}, rl).Notify(context.Background(), NotifyInput{
		RecipientID: "alice", SenderID: "alice", Type: domain.NotificationLike,
	})

	require.NoError(t, err)
	assert.Nil(t, n)
	ns.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	rl.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotify_InvalidType(t *testing.T) {
	_, err := newService(&mockNotificationStore{}, &mockUserStore{}, &mockRelay{}).Notify(context.Background(), NotifyInput{
		RecipientID: "bob", SenderID: "alice", Type: "poke",
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestNotify_StoreFailureSkipsRelay(t *testing.T) {
	ns, rl := &mockNotificationStore{}, &mockRelay{}
	ns.On("Put", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	_, err := newService(ns, &mockUserStore{}, rl).Notify(context.Background(), NotifyInput{
		RecipientID: "bob", SenderID: "alice", Type: domain.NotificationComment, PostID: "p1",
	})

	require.Error(t, err)
	rl.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- MarkAllRead ---

func TestMarkAllRead_EmitsNotificationsRead(t *testing.T) {
	ns, rl := &mockNotificationStore{}, &mockRelay{}
	ns.On("MarkAllRead", mock.Anything, "bob").Return(3, nil)
	rl.On("Send", mock.Anything, "bob", realtime.EventNotificationsRead, mock.Anything).Return(true)

	n, err := newService(ns, &mockUserStore{}, rl).MarkAllRead(context.Background(), "bob")

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	rl.AssertExpectations(t)
}

func TestMarkAllRead_StoreError(t *testing.T) {
	ns, rl := &mockNotificationStore{}, &mockRelay{}
	ns.On("MarkAllRead", mock.Anything, "bob").Return(0, errors.New("down"))

	_, err := newService(ns, &mockUserStore{}, rl).MarkAllRead(context.Background(), "bob")

	require.Error(t, err)
	rl.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- MarkRead ---

func TestMarkRead_Forbidden(t *testing.T) {
	ns := &mockNotificationStore{}
	ns.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "bob"}, nil)

	_, err := newService(ns, &mockUserStore{}, &mockRelay{}).MarkRead(context.Background(), "n1", "mallory")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	ns.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestMarkRead_Success(t *testing.T) {
	ns := &mockNotificationStore{}
	ns.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "bob"}, nil)
	ns.On("MarkRead", mock.Anything, "n1").Return(nil)

	n, err := newService(ns, &mockUserStore{}, &mockRelay{}).MarkRead(context.Background(), "n1", "bob")

	require.NoError(t, err)
	assert.True(t, n.IsRead)
}

func TestMarkRead_NotFound(t *testing.T) {
	ns := &mockNotificationStore{}
	ns.On("Get", mock.Anything, "n1").Return(nil, domain.ErrNotFound)

	_, err := newService(ns, &mockUserStore{}, &mockRelay{}).MarkRead(context.Background(), "n1", "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- List ---

func TestList_AttachesSenders(t *testing.T) {
	ns, us := &mockNotificationStore{}, &mockUserStore{}
	ns.On("ListByUser", mock.Anything, "bob", listLimit).Return([]domain.Notification{
		{NotificationID: "n2", SenderID: "alice"},
		{NotificationID: "n1", SenderID: "ghost"},
	}, nil)
	us.On("GetMany", mock.Anything, []string{"alice", "ghost"}).Return([]domain.User{{UserID: "alice", Name: "Alice"}}, nil)

	list, err := newService(ns, us, &mockRelay{}).List(context.Background(), "bob")

	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Sender)
	assert.Equal(t, "Alice", list[0].Sender.Name)
	assert.Nil(t, list[1].Sender)
}
