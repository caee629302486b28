package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.deps.Store.ListIncomes(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, incomes)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := &core.Income{UserID: userFrom(r.Context()).ID}
	if err := s.applyIncome(in, req, true); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Store.CreateIncome(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	in, err := s.deps.Store.GetIncome(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in, err := s.deps.Store.GetIncome(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.applyIncome(in, req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Store.UpdateIncome(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteIncome(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applyIncome(in *core.Income, req recordRequest, create bool) error {
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.Description != nil {
		in.Description = sanitizeInput(*req.Description)
	}
	if req.Category != nil {
		in.CategoryID = strings.TrimSpace(*req.Category)
	}
	if req.Date != nil || create {
		var raw string
		if req.Date != nil {
			raw = *req.Date
		}
		d, err := parseDate(raw, s.now().UTC())
		if err != nil {
			return err
		}
		in.Date = d
	}
	return validateRecord(in.Validate())
}
