package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

// handleListCategories lists every category, or one kind with ?type=.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var (
		cats []core.Category
		err  error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		t, perr := core.ParseCategoryType(raw)
		if perr != nil {
			writeError(w, r, core.Fail(core.KindValidation, perr.Error(), perr))
			return
		}
		cats, err = s.deps.Store.ListByType(r.Context(), t)
	} else {
		cats, err = s.deps.Store.ListCategories(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := core.ParseCategoryType(req.Type)
	if err != nil {
		writeError(w, r, core.Fail(core.KindValidation, err.Error(), err))
		return
	}

	c := &core.Category{Name: sanitizeInput(req.Name), Type: t}
	if err := s.deps.Store.CreateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
