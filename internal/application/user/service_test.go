package user

import (
	"context"
	"errors"
	"testing"

	"github.com/devconnect-api/internal/application/notification"
	"github.com/devconnect-api/internal/domain"
	"github.com/devconnect-api/internal/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetMany(ctx context.Context, ids []string) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *mockUserStore) AddFollow(ctx context.Context, followerID, followeeID string) error {
	return m.Called(ctx, followerID, followeeID).Error(0)
}
func (m *mockUserStore) RemoveFollow(ctx context.Context, followerID, followeeID string) error {
	return m.Called(ctx, followerID, followeeID).Error(0)
}

type mockPostLister struct{ mock.Mock }

func (m *mockPostLister) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Post), args.Error(1)
}

type mockResourceLister struct{ mock.Mock }

func (m *mockResourceLister) ListByUser(ctx context.Context, userID string) ([]domain.Resource, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Resource), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, in notification.NotifyInput) (*domain.Notification, error) {
	args := m.Called(ctx, in)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, pl *mockPostLister, rl *mockResourceLister, n *mockNotifier) Service {
	return NewService(ServiceDeps{
		UserRepo:     us,
		PostRepo:     pl,
		ResourceRepo: rl,
		Notifier:     n,
	})
}

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Name:     "Alice",
		Password: "password123",
		Email:    "Alice@Example.com",
	}
}

// --- Register tests ---

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	_, err := newService(us, nil, nil, nil).Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_LookupFailure(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, errors.New("dynamo error"))

	_, err := newService(us, nil, nil, nil).Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := newService(us, nil, nil, nil).Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.GenderOther, u.Gender)
	assert.True(t, id.Valid(u.UserID))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
	assert.NotNil(t, u.Followers)
	us.AssertExpectations(t)
}

// --- Profile tests ---

func TestProfile_MalformedID(t *testing.T) {
	us := &mockUserStore{}
	_, err := newService(us, nil, nil, nil).Profile(context.Background(), "not-an-id")

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	us.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestProfile_Missing(t *testing.T) {
	us := &mockUserStore{}
	uid := id.New()
	us.On("Get", mock.Anything, uid).Return(nil, domain.ErrNotFound)

	_, err := newService(us, nil, nil, nil).Profile(context.Background(), uid)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProfile_AggregatesContent(t *testing.T) {
	us, pl, rl := &mockUserStore{}, &mockPostLister{}, &mockResourceLister{}
	uid := id.New()
	us.On("Get", mock.Anything, uid).Return(&domain.User{
		UserID: uid, Name: "Alice", Email: "alice@example.com", Followers: []string{"b", "c"},
	}, nil)
	pl.On("ListByUser", mock.Anything, uid).Return([]domain.Post{{PostID: "p1", UserID: uid}}, nil)
	rl.On("ListByUser", mock.Anything, uid).Return([]domain.Resource(nil), nil)

	p, err := newService(us, pl, rl, nil).Profile(context.Background(), uid)

	require.NoError(t, err)
	assert.Equal(t, 2, p.User.FollowerCount)
	assert.Equal(t, 0, p.User.FollowingCount)
	require.Len(t, p.Posts, 1)
	assert.Equal(t, "Alice", p.Posts[0].Author.Name)
	assert.NotNil(t, p.Resources)
}

func TestFollowers_Summaries(t *testing.T) {
	us := &mockUserStore{}
	uid := id.New()
	us.On("Get", mock.Anything, uid).Return(&domain.User{UserID: uid, Followers: []string{"b"}}, nil)
	us.On("GetMany", mock.Anything, []string{"b"}).Return([]domain.User{{UserID: "b", Name: "Bob"}}, nil)

	list, err := newService(us, nil, nil, nil).Followers(context.Background(), uid)

	require.NoError(t, err)
	assert.Equal(t, []domain.UserSummary{{UserID: "b", Name: "Bob"}}, list)
}

func TestFollowing_EmptyIsNotNil(t *testing.T) {
	us := &mockUserStore{}
	uid := id.New()
	us.On("Get", mock.Anything, uid).Return(&domain.User{UserID: uid}, nil)

	list, err := newService(us, nil, nil, nil).Following(context.Background(), uid)

	require.NoError(t, err)
	assert.NotNil(t, list)
	us.AssertNotCalled(t, "GetMany", mock.Anything, mock.Anything)
}

// --- Follow tests ---

func TestFollow_Self(t *testing.T) {
	uid := id.New()
	err := newService(&mockUserStore{}, nil, nil, nil).Follow(context.Background(), uid, uid)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestFollow_UnknownTarget(t *testing.T) {
	us := &mockUserStore{}
	alice, ghost := id.New(), id.New()
	us.On("Get", mock.Anything, ghost).Return(nil, domain.ErrNotFound)

	err := newService(us, nil, nil, nil).Follow(context.Background(), alice, ghost)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFollow_AlreadyFollowing(t *testing.T) {
	us := &mockUserStore{}
	alice, bob := id.New(), id.New()
	us.On("Get", mock.Anything, bob).Return(&domain.User{UserID: bob}, nil)
	us.On("Get", mock.Anything, alice).Return(&domain.User{UserID: alice, Following: []string{bob}}, nil)

	err := newService(us, nil, nil, nil).Follow(context.Background(), alice, bob)

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	us.AssertNotCalled(t, "AddFollow", mock.Anything, mock.Anything, mock.Anything)
}

func TestFollow_HappyPathNotifies(t *testing.T) {
	us, n := &mockUserStore{}, &mockNotifier{}
	alice, bob := id.New(), id.New()
	us.On("Get", mock.Anything, bob).Return(&domain.User{UserID: bob}, nil)
	us.On("Get", mock.Anything, alice).Return(&domain.User{UserID: alice}, nil)
	us.On("AddFollow", mock.Anything, alice, bob).Return(nil)
	n.On("Notify", mock.Anything, notification.NotifyInput{
		RecipientID: bob, SenderID: alice, Type: domain.NotificationFollow,
	}).Return(&domain.Notification{}, nil)

	require.NoError(t, newService(us, nil, nil, n).Follow(context.Background(), alice, bob))
	us.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestFollow_NotifyFailureIgnored(t *testing.T) {
	us, n := &mockUserStore{}, &mockNotifier{}
	alice, bob := id.New(), id.New()
	us.On("Get", mock.Anything, mock.Anything).Return(&domain.User{}, nil)
	us.On("AddFollow", mock.Anything, alice, bob).Return(nil)
	n.On("Notify", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	assert.NoError(t, newService(us, nil, nil, n).Follow(context.Background(), alice, bob))
}

func TestUnfollow_NotFollowing(t *testing.T) {
	us := &mockUserStore{}
	alice, bob := id.New(), id.New()
	us.On("Get", mock.Anything, mock.Anything).Return(&domain.User{}, nil)

	err := newService(us, nil, nil, nil).Unfollow(context.Background(), alice, bob)

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	us.AssertNotCalled(t, "RemoveFollow", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnfollow_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	alice, bob := id.New(), id.New()
	us.On("Get", mock.Anything, bob).Return(&domain.User{UserID: bob}, nil)
	us.On("Get", mock.Anything, alice).Return(&domain.User{UserID: alice, Following: []string{bob}}, nil)
	us.On("RemoveFollow", mock.Anything, alice, bob).Return(nil)

	require.NoError(t, newService(us, nil, nil, nil).Unfollow(context.Background(), alice, bob))
	us.AssertExpectations(t)
}
