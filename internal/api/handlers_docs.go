package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/wikiscan/internal/store"
)

// handleListDocuments lists stored documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Store.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetDocument returns one document with its chunks and annotations.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	rec, err := s.deps.Store.Get(r.Context(), title)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteDocument removes a stored document.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	if err := s.deps.Store.Delete(r.Context(), title); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": title})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
