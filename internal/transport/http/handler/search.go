package handler

import (
	"net/http"

	"github.com/devconnect-api/internal/application/search"
)

type SearchHandler struct {
	svc search.Service
}

func NewSearchHandler(svc search.Service) *SearchHandler { return &SearchHandler{svc: svc} }

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
