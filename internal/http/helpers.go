package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

// parsePeriod reads the "period" query parameter, defaulting to the
// current month.
func (s *Server) parsePeriod(r *http.Request) (core.Period, error) {
	p, err := core.ParsePeriod(strings.TrimSpace(r.URL.Query().Get("period")), s.now())
	if err != nil {
		return core.Period{}, core.Fail(core.KindValidation, err.Error(), err)
	}
	return p, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. An empty string yields def.
func parseDate(s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, core.Fail(core.KindValidation, fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", s), err)
	}
	return t.UTC(), nil
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
