package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted peer ignores forwarding", "203.0.113.7:5000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy garbage header", "127.0.0.1:5000", "not-an-ip", "", "127.0.0.1"},
		{"no port", "203.0.113.7", "", "", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		path   string
		agent  string
		method string
		want   bool
	}{
		{"/expenses", "Mozilla/5.0", http.MethodGet, false},
		{"/.env", "Mozilla/5.0", http.MethodGet, true},
		{"/expenses?next=../../etc/passwd", "", http.MethodGet, true},
		{"/expenses", "sqlmap/1.7", http.MethodGet, true},
		{"/expenses", "", "TRACE", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, nil)
		r.Header.Set("User-Agent", tt.agent)
		if got := detectSuspiciousRequest(r); got != tt.want {
			t.Errorf("detectSuspiciousRequest(%s %s, %q) = %v, want %v", tt.method, tt.path, tt.agent, got, tt.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := bearerToken(r); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	def := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	if got, err := parseDate("", def); err != nil || !got.Equal(def) {
		t.Errorf("empty = %v, %v", got, err)
	}
	if got, err := parseDate("2024-02-29", def); err != nil || got.Day() != 29 {
		t.Errorf("day = %v, %v", got, err)
	}
	if got, err := parseDate("2024-02-29T15:04:05+02:00", def); err != nil || got.Hour() != 13 {
		t.Errorf("rfc3339 = %v, %v", got, err)
	}
	if _, err := parseDate("29/02/2024", def); core.KindOf(err) != core.KindValidation {
		t.Errorf("bad date err = %v", err)
	}
}

func TestDetectMIMEType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	tests := []struct {
		declared string
		data     []byte
		want     string
	}{
		{"image/jpeg", png, "image/jpeg"},
		{"image/png; charset=binary", nil, "image/png"},
		{"application/octet-stream", png, "image/png"},
		{"", png, "image/png"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		if got := detectMIMEType(tt.declared, tt.data); got != tt.want {
			t.Errorf("detectMIMEType(%q) = %q, want %q", tt.declared, got, tt.want)
		}
	}
}

func TestStatusForKind(t *testing.T) {
	tests := map[core.ErrorKind]int{
		core.KindInputMissing:         http.StatusBadRequest,
		core.KindAuthFailure:          http.StatusUnauthorized,
		core.KindNotFound:             http.StatusNotFound,
		core.KindValidation:           http.StatusUnprocessableEntity,
		core.KindInsufficientData:     http.StatusUnprocessableEntity,
		core.KindInferenceFailure:     http.StatusBadGateway,
		core.KindMalformedAIOutput:    http.StatusBadGateway,
		core.KindInvalidAdvisoryShape: http.StatusBadGateway,
		core.KindEmptyTaxonomy:        http.StatusServiceUnavailable,
		core.KindTaxonomyIntegrity:    http.StatusServiceUnavailable,
		core.KindInternal:             http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := statusForKind(kind); got != want {
			t.Errorf("statusForKind(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	writeError(rr, r, errBoom)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "boom") {
		t.Errorf("internal error leaked: %s", rr.Body)
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}{"name":"b"}`))
	var req categoryRequest
	if err := decodeJSON(httptest.NewRecorder(), r, &req); core.KindOf(err) != core.KindValidation {
		t.Errorf("err = %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	r.Header.Set("Content-Type", "text/plain")
	if err := decodeJSON(httptest.NewRecorder(), r, &req); core.KindOf(err) != core.KindValidation {
		t.Errorf("content type err = %v", err)
	}
}
