package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devconnect-api/internal/application/notification"
	"github.com/devconnect-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockNotificationSvc) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationSvc) MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationSvc) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationSvc) Notify(ctx context.Context, in notification.NotifyInput) (*domain.Notification, error) {
	args := m.Called(ctx, in)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestNotifications_ListForCaller(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("List", mock.Anything, "u1").Return([]domain.Notification{{NotificationID: "n1", UserID: "u1"}}, nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr, bearerReq(t, p, http.MethodGet, "/v1/notifications", "u1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[[]domain.Notification](t, rr)
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].NotificationID)
}

func TestNotifications_UnreadCount(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("UnreadCount", mock.Anything, "u1").Return(4, nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.UnreadCount), rr, bearerReq(t, p, http.MethodGet, "/v1/notifications/unread", "u1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 4, decodeBody[CountEnvelope](t, rr).Count)
}

func TestNotifications_MarkAllRead(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("MarkAllRead", mock.Anything, "u1").Return(2, nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkAllRead), rr, bearerReq(t, p, http.MethodPut, "/v1/notifications/read", "u1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, decodeBody[CountEnvelope](t, rr).Count)
}

func TestNotifications_MarkReadOK(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("MarkRead", mock.Anything, "n1", "u1").Return(&domain.Notification{NotificationID: "n1", IsRead: true}, nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	req := withChiID(bearerReq(t, p, http.MethodPut, "/v1/notifications/n1/read", "u1", nil), "n1")
	serveAuthed(p, http.HandlerFunc(h.MarkRead), rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeBody[domain.Notification](t, rr).IsRead)
}

func TestNotifications_MarkReadOtherRecipient(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("MarkRead", mock.Anything, "n1", "u2").
		Return(nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden))
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	req := withChiID(bearerReq(t, p, http.MethodPut, "/v1/notifications/n1/read", "u2", nil), "n1")
	serveAuthed(p, http.HandlerFunc(h.MarkRead), rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestNotifications_RequireAuth(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationSvc{})

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/notifications", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
