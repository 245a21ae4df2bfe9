package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devconnect-api/internal/application/resource"
)

// ResourceHandler handles shared resource endpoints.
type ResourceHandler struct {
	svc      resource.Service
	maxBytes int64
}

func NewResourceHandler(svc resource.Service, maxUploadBytes int64) *ResourceHandler {
	return &ResourceHandler{svc: svc, maxBytes: maxUploadBytes}
}

func (h *ResourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, h.maxBytes) {
		return
	}
	file, f, err := formFile(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file field")
		return
	}
	if f != nil {
		defer f.Close()
	}
	res, err := h.svc.Upload(r.Context(), resource.UploadInput{
		UploaderID: userID,
		Title:      r.FormValue("title"),
		Category:   r.FormValue("category"),
		File:       file,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ResourceHandler) Download(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.DownloadURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "resource deleted"})
}
