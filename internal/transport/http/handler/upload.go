package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/devconnect-api/internal/domain"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// parseMultipart caps the body at maxBytes plus form overhead and parses it.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	return true
}

// formFile returns the named upload, or nil when the field is absent. The
// caller closes the returned file.
func formFile(r *http.Request, field string) (*domain.FileUpload, multipart.File, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &domain.FileUpload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}, f, nil
}
