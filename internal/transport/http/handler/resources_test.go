package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devconnect-api/internal/application/resource"
	"github.com/devconnect-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResourceSvc struct{ mock.Mock }

func (m *mockResourceSvc) resourceResult(args mock.Arguments) (*domain.Resource, error) {
	if r, _ := args.Get(0).(*domain.Resource); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockResourceSvc) Upload(ctx context.Context, in resource.UploadInput) (*domain.Resource, error) {
	return m.resourceResult(m.Called(ctx, in))
}
func (m *mockResourceSvc) List(ctx context.Context) ([]domain.Resource, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Resource), args.Error(1)
}
func (m *mockResourceSvc) ListByUser(ctx context.Context, userID string) ([]domain.Resource, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Resource), args.Error(1)
}
func (m *mockResourceSvc) Get(ctx context.Context, resourceID string) (*domain.Resource, error) {
	return m.resourceResult(m.Called(ctx, resourceID))
}
func (m *mockResourceSvc) DownloadURL(ctx context.Context, resourceID string) (string, error) {
	args := m.Called(ctx, resourceID)
	return args.String(0), args.Error(1)
}
func (m *mockResourceSvc) Delete(ctx context.Context, resourceID, requesterID string) error {
	return m.Called(ctx, resourceID, requesterID).Error(0)
}

func TestUploadResource_PassesFormFields(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockResourceSvc{}
	svc.On("Upload", mock.Anything, mock.MatchedBy(func(in resource.UploadInput) bool {
		return in.UploaderID == "u1" && in.Title == "Go notes" && in.Category == "docs" &&
			in.File != nil && in.File.Size == 3
	})).Return(&domain.Resource{ResourceID: "r1", Title: "Go notes"}, nil)
	h := NewResourceHandler(svc, 1<<20)

	body, ct := multipartBody(t, map[string]string{"title": "Go notes", "category": "docs"}, "file", []byte("pdf"))
	req := bearerReq(t, p, http.MethodPost, "/v1/resources", "u1", body.Bytes())
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "r1", decodeBody[domain.Resource](t, rr).ResourceID)
	svc.AssertExpectations(t)
}

func TestUploadResource_BodyTooLarge(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockResourceSvc{}
	h := NewResourceHandler(svc, 1)

	// Past the cap plus the in-memory form allowance.
	big := bytes.Repeat([]byte{'x'}, multipartMemory+2)
	body, ct := multipartBody(t, map[string]string{"title": "big", "category": "docs"}, "file", big)
	req := bearerReq(t, p, http.MethodPost, "/v1/resources", "u1", body.Bytes())
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUploadResource_NotMultipart(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockResourceSvc{}
	h := NewResourceHandler(svc, 1<<20)

	req := bearerReq(t, p, http.MethodPost, "/v1/resources", "u1", []byte(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUploadResource_ServiceRejectsMissingFile(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockResourceSvc{}
	svc.On("Upload", mock.Anything, mock.MatchedBy(func(in resource.UploadInput) bool { return in.File == nil })).
		Return(nil, fmt.Errorf("a file is required: %w", domain.ErrBadRequest))
	h := NewResourceHandler(svc, 1<<20)

	body, ct := multipartBody(t, map[string]string{"title": "t", "category": "c"}, "", nil)
	req := bearerReq(t, p, http.MethodPost, "/v1/resources", "u1", body.Bytes())
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownloadResource_Redirects(t *testing.T) {
	svc := &mockResourceSvc{}
	svc.On("DownloadURL", mock.Anything, "r1").Return("https://bucket.example/resources/u1/r1.pdf?sig", nil)
	h := NewResourceHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.Download(rr, withChiID(httptest.NewRequest(http.MethodGet, "/v1/resources/r1/download", nil), "r1"))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://bucket.example/resources/u1/r1.pdf?sig", rr.Header().Get("Location"))
}

func TestDownloadResource_NotFound(t *testing.T) {
	svc := &mockResourceSvc{}
	svc.On("DownloadURL", mock.Anything, "nope").Return("", fmt.Errorf("resource nope: %w", domain.ErrNotFound))
	h := NewResourceHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.Download(rr, withChiID(httptest.NewRequest(http.MethodGet, "/v1/resources/nope/download", nil), "nope"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
}

func TestDeleteResource_NotUploader(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockResourceSvc{}
	svc.On("Delete", mock.Anything, "r1", "u2").
		Return(fmt.Errorf("only the uploader can delete a resource: %w", domain.ErrForbidden))
	h := NewResourceHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	req := withChiID(bearerReq(t, p, http.MethodDelete, "/v1/resources/r1", "u2", nil), "r1")
	serveAuthed(p, http.HandlerFunc(h.Delete), rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
