package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/devconnect-api/internal/application/notification"
	"github.com/devconnect-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResourceStore struct{ mock.Mock }

func (m *mockResourceStore) Create(ctx context.Context, r *domain.Resource) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockResourceStore) Get(ctx context.Context, resourceID string) (*domain.Resource, error) {
	args := m.Called(ctx, resourceID)
	if r, _ := args.Get(0).(*domain.Resource); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockResourceStore) Delete(ctx context.Context, resourceID string) error {
	return m.Called(ctx, resourceID).Error(0)
}
func (m *mockResourceStore) List(ctx context.Context) ([]domain.Resource, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Resource), args.Error(1)
}
func (m *mockResourceStore) ListByUser(ctx context.Context, userID string) ([]domain.Resource, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Resource), args.Error(1)
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

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	return m.Called(ctx, key, body, contentType, size).Error(0)
}
func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
func (m *mockObjectStore) PresignedURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, in notification.NotifyInput) (*domain.Notification, error) {
	args := m.Called(ctx, in)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

var pdfBody = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

func newTestService(rs *mockResourceStore, us *mockUserStore, os *mockObjectStore, n *mockNotifier) Service {
	return NewService(ServiceDeps{
		ResourceRepo:   rs,
		UserRepo:       us,
		ObjectStore:    os,
		Notifier:       n,
		MaxUploadBytes: 1 << 20,
	})
}

func pdfUpload() *domain.FileUpload {
	return &domain.FileUpload{Filename: "notes.pdf", Size: int64(len(pdfBody)), Body: bytes.NewReader(pdfBody)}
}

func TestUpload_NotifiesEveryFollower(t *testing.T) {
	rs, us, os, n := &mockResourceStore{}, &mockUserStore{}, &mockObjectStore{}, &mockNotifier{}
	us.On("Get", mock.Anything, "alice").Return(&domain.User{
		UserID: "alice", Name: "Alice", Followers: []string{"bob", "carol"},
	}, nil)
	os.On("Upload", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "resources/alice/") && strings.HasSuffix(k, ".pdf")
	}), mock.Anything, "application/pdf", int64(len(pdfBody))).Return(nil)
	rs.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Resource) bool {
		return r.Title == "Go notes" && r.Category == "golang" && r.ContentType == "application/pdf"
	})).Return(nil)
	for _, follower := range []string{"bob", "carol"} {
		n.On("Notify", mock.Anything, mock.MatchedBy(func(in notification.NotifyInput) bool {
			return in.RecipientID == follower && in.SenderID == "alice" && in.Type == domain.NotificationResource && in.ResourceID != ""
		})).Return(&domain.Notification{}, nil).Once()
	}

	r, err := newTestService(rs, us, os, n).Upload(context.Background(), UploadInput{
		UploaderID: "alice", Title: " Go notes ", Category: "golang", File: pdfUpload(),
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice", r.Author.Name)
	n.AssertExpectations(t)
	rs.AssertExpectations(t)
}

func TestUpload_MissingFields(t *testing.T) {
	svc := newTestService(&mockResourceStore{}, &mockUserStore{}, &mockObjectStore{}, &mockNotifier{})
	cases := []UploadInput{
		{UploaderID: "alice", Category: "go", File: pdfUpload()},
		{UploaderID: "alice", Title: "t", File: pdfUpload()},
		{UploaderID: "alice", Title: "t", Category: "go"},
	}
	for _, in := range cases {
		_, err := svc.Upload(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	}
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	us, os := &mockUserStore{}, &mockObjectStore{}
	us.On("Get", mock.Anything, "alice").Return(&domain.User{UserID: "alice"}, nil)
	body := []byte("plain text is not allowed")

	_, err := newTestService(&mockResourceStore{}, us, os, &mockNotifier{}).Upload(context.Background(), UploadInput{
		UploaderID: "alice", Title: "t", Category: "c",
		File: &domain.FileUpload{Size: int64(len(body)), Body: bytes.NewReader(body)},
	})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	os.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_RejectsOversize(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "alice").Return(&domain.User{UserID: "alice"}, nil)
	f := pdfUpload()
	f.Size = 2 << 20

	_, err := newTestService(&mockResourceStore{}, us, &mockObjectStore{}, &mockNotifier{}).Upload(context.Background(), UploadInput{
		UploaderID: "alice", Title: "t", Category: "c", File: f,
	})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpload_RecordFailureRemovesObject(t *testing.T) {
	rs, us, os := &mockResourceStore{}, &mockUserStore{}, &mockObjectStore{}
	us.On("Get", mock.Anything, "alice").Return(&domain.User{UserID: "alice"}, nil)
	os.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	os.On("Delete", mock.Anything, mock.Anything).Return(nil)
	rs.On("Create", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	_, err := newTestService(rs, us, os, &mockNotifier{}).Upload(context.Background(), UploadInput{
		UploaderID: "alice", Title: "t", Category: "c", File: pdfUpload(),
	})

	require.Error(t, err)
	os.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestList_AttachesAuthors(t *testing.T) {
	rs, us := &mockResourceStore{}, &mockUserStore{}
	rs.On("List", mock.Anything).Return([]domain.Resource{{ResourceID: "r2", UserID: "bob"}, {ResourceID: "r1", UserID: "alice"}}, nil)
	us.On("GetMany", mock.Anything, []string{"bob", "alice"}).Return([]domain.User{
		{UserID: "alice", Name: "Alice"}, {UserID: "bob", Name: "Bob"},
	}, nil)

	list, err := newTestService(rs, us, &mockObjectStore{}, &mockNotifier{}).List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].Author.Name)
	assert.Equal(t, "Alice", list[1].Author.Name)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	rs := &mockResourceStore{}
	rs.On("ListByUser", mock.Anything, "alice").Return([]domain.Resource(nil), nil)

	list, err := newTestService(rs, &mockUserStore{}, &mockObjectStore{}, &mockNotifier{}).ListByUser(context.Background(), "alice")

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDownloadURL(t *testing.T) {
	rs, os := &mockResourceStore{}, &mockObjectStore{}
	rs.On("Get", mock.Anything, "r1").Return(&domain.Resource{ResourceID: "r1", FileKey: "resources/alice/r1.pdf"}, nil)
	rs.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	os.On("PresignedURL", mock.Anything, "resources/alice/r1.pdf").Return("https://signed", nil)
	svc := newTestService(rs, &mockUserStore{}, os, &mockNotifier{})

	url, err := svc.DownloadURL(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed", url)

	_, err = svc.DownloadURL(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_OwnerOnly(t *testing.T) {
	rs, os := &mockResourceStore{}, &mockObjectStore{}
	rs.On("Get", mock.Anything, "r1").Return(&domain.Resource{ResourceID: "r1", UserID: "alice", FileKey: "k"}, nil)
	rs.On("Delete", mock.Anything, "r1").Return(nil)
	os.On("Delete", mock.Anything, "k").Return(nil)
	svc := newTestService(rs, &mockUserStore{}, os, &mockNotifier{})

	assert.ErrorIs(t, svc.Delete(context.Background(), "r1", "bob"), domain.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), "r1", "alice"))
	rs.AssertNumberOfCalls(t, "Delete", 1)
	os.AssertExpectations(t)
}
