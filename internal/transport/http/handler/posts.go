package handler

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devconnect-api/internal/application/post"
	"github.com/devconnect-api/internal/domain"
)

// PostHandler handles posts, likes, comments and replies.
type PostHandler struct {
	svc      post.Service
	maxImage int64
}

func NewPostHandler(svc post.Service, maxImageBytes int64) *PostHandler {
	return &PostHandler{svc: svc, maxImage: maxImageBytes}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, h.maxImage) {
		return
	}
	image, f, err := formFile(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image field")
		return
	}
	if f != nil {
		defer f.Close()
	}
	p, err := h.svc.Create(r.Context(), post.CreateInput{
		UserID:  userID,
		Content: r.FormValue("content"),
		Image:   image,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Feed(r.Context(), queryInt(r, "limit"), r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Edit accepts either a JSON body with content or a multipart form with
// content and/or image.
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var in post.EditInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if !parseMultipart(w, r, h.maxImage) {
			return
		}
		if vs, ok := r.MultipartForm.Value["content"]; ok && len(vs) > 0 {
			in.Content = &vs[0]
		}
		image, f, err := formFile(r, "image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid image field")
			return
		}
		if f != nil {
			defer f.Close()
		}
		in.Image = image
	} else {
		var req domain.EditPostRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in.Content = req.Content
	}
	p, err := h.svc.Edit(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "post deleted"})
}

func (h *PostHandler) Image(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.ImageURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ToggleLike(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req domain.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.AddComment(r.Context(), userID, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.DeleteComment(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req domain.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := h.svc.AddReply(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "commentID"), req.Text)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (h *PostHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.DeleteReply(r.Context(), userID,
		chi.URLParam(r, "id"), chi.URLParam(r, "commentID"), chi.URLParam(r, "replyID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
