package http

import (
	"net/http"
	"strings"
)

// handleGenerateRecommendation runs the advisory pipeline. The token comes
// from the userToken query parameter or the bearer header.
func (s *Server) handleGenerateRecommendation(w http.ResponseWriter, r *http.Request) {
	period, err := s.parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("userToken"))
	if token == "" {
		token = bearerToken(r)
	}

	rec, err := s.deps.Advisor.GenerateRecommendation(r.Context(), token, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.deps.Store.ListRecommendations(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleBudget returns income, expenses and savings for ?period=YYYY-MM.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	period, err := s.parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.deps.Store.Budget(r.Context(), userFrom(r.Context()).ID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
