// Package ai wraps the external generative model behind a single call.
package ai

import "context"

// Part is one segment of a prompt: either text or an inline image.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// Text returns a text-only prompt part.
func Text(s string) Part { return Part{Text: s} }

// Image returns an inline binary part with an explicit MIME type.
func Image(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// IsImage reports whether the part carries inline data.
func (p Part) IsImage() bool { return len(p.Data) > 0 }

// Inferrer sends a prompt to a generative model and returns its raw text.
// Any failure is reported as core.ErrInferenceFailure.
type Inferrer interface {
	Infer(ctx context.Context, parts ...Part) (string, error)
}
