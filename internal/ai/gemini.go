package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

const DefaultModel = "gemini-1.5-flash"

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the Generative Language endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiClient calls the Gemini API. Each call is bounded by Timeout and
// never retried.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *log.Logger
}

// NewGeminiClient creates a client for the configured model.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, m *metrics.Metrics, logger *log.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = log.Discard()
	}

	return &GeminiClient{
		client:  client,
		model:   strings.TrimPrefix(model, "models/"),
		timeout: cfg.Timeout,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentAI),
	}, nil
}

// Infer sends the parts as a single user turn and returns the concatenated
// text of the first candidate.
func (c *GeminiClient) Infer(ctx context.Context, parts ...Part) (string, error) {
	if len(parts) == 0 {
		return "", core.Fail(core.KindInputMissing, "empty prompt", nil)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromParts(toParts(parts), genai.RoleUser)}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	c.metrics.ObserveInference(time.Since(start), err == nil)
	if err != nil {
		msg := "inference call failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "inference call timed out"
		}
		c.logger.WarnContext(ctx, msg, log.FieldOperation, log.OpInference, log.FieldError, err)
		return "", core.Fail(core.KindInferenceFailure, msg, err)
	}

	text := responseText(resp)
	if text == "" {
		return "", core.Fail(core.KindInferenceFailure, "model returned no text", nil)
	}

	c.logger.DebugContext(ctx, "Inference completed",
		log.FieldDuration, time.Since(start).Milliseconds(),
		"parts", len(parts))
	return text, nil
}

func toParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsImage() {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if p != nil && !p.Thought {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
