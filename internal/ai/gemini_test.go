package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

type capturedRequest struct {
	Path   string
	APIKey string
	Body   map[string]any
}

func newFakeGemini(t *testing.T, status int, reply string, delay time.Duration) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.APIKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured.Body)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestClient(t *testing.T, srv *httptest.Server, timeout time.Duration) *GeminiClient {
	t.Helper()
	c, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		Model:      "gemini-test",
		Timeout:    timeout,
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	return c
}

func TestInferReturnsCandidateText(t *testing.T) {
	reply := `{"candidates":[{"content":{"parts":[{"text":"[{\"amount\":"},{"text":"1}]"}]}}]}`
	srv, captured := newFakeGemini(t, http.StatusOK, reply, 0)
	c := newTestClient(t, srv, time.Second)

	img := []byte{0x89, 'P', 'N', 'G'}
	got, err := c.Infer(context.Background(), Text("extract"), Image(img, "image/png"))
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if got != `[{"amount":1}]` {
		t.Errorf("text = %q", got)
	}
	if !strings.HasSuffix(captured.Path, "models/gemini-test:generateContent") {
		t.Errorf("unexpected path %q", captured.Path)
	}
	if captured.APIKey != "test-key" {
		t.Errorf("api key header = %q", captured.APIKey)
	}

	contents := captured.Body["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("sent %d parts, want 2", len(parts))
	}
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/png" {
		t.Errorf("mimeType = %v", inline["mimeType"])
	}
	if inline["data"] != base64.StdEncoding.EncodeToString(img) {
		t.Errorf("image payload not base64 encoded: %v", inline["data"])
	}
}

func TestInferFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"code":500,"message":"boom"}}`},
		{"quota", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newFakeGemini(t, tt.status, tt.reply, 0)
			c := newTestClient(t, srv, time.Second)

			_, err := c.Infer(context.Background(), Text("hi"))
			if !errors.Is(err, core.ErrInferenceFailure) {
				t.Fatalf("err = %v, want inference failure", err)
			}
		})
	}
}

func TestInferTimeout(t *testing.T) {
	srv, _ := newFakeGemini(t, http.StatusOK, `{}`, 2*time.Second)
	c := newTestClient(t, srv, 50*time.Millisecond)

	_, err := c.Infer(context.Background(), Text("hi"))
	if !errors.Is(err, core.ErrInferenceFailure) {
		t.Fatalf("err = %v, want inference failure", err)
	}
	if !strings.Contains(core.MessageOf(err), "timed out") {
		t.Errorf("message = %q", core.MessageOf(err))
	}
}

func TestInferEmptyPrompt(t *testing.T) {
	srv, _ := newFakeGemini(t, http.StatusOK, `{}`, 0)
	c := newTestClient(t, srv, time.Second)
	if _, err := c.Infer(context.Background()); !errors.Is(err, core.ErrInputMissing) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), GeminiConfig{Model: "gemini-test"}, nil, nil); err == nil {
		t.Fatal("expected error without API key")
	}
}
