package core

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, user-visible classification of a failure.
type ErrorKind string

const (
	KindInputMissing         ErrorKind = "input_missing"
	KindAuthFailure          ErrorKind = "auth_failure"
	KindInferenceFailure     ErrorKind = "inference_failure"
	KindMalformedAIOutput    ErrorKind = "malformed_ai_output"
	KindInvalidAdvisoryShape ErrorKind = "invalid_advisory_shape"
	KindEmptyTaxonomy        ErrorKind = "empty_taxonomy"
	KindTaxonomyIntegrity    ErrorKind = "taxonomy_integrity"
	KindInsufficientData     ErrorKind = "insufficient_data"
	KindNotFound             ErrorKind = "not_found"
	KindValidation           ErrorKind = "validation"
	KindInternal             ErrorKind = "internal"
)

// Error carries a kind, a message safe to show to callers and an optional cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the package sentinels below work
// with errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInputMissing         = &Error{Kind: KindInputMissing, Message: "required input is missing"}
	ErrAuthFailure          = &Error{Kind: KindAuthFailure, Message: "invalid or expired credentials"}
	ErrInferenceFailure     = &Error{Kind: KindInferenceFailure, Message: "inference service call failed"}
	ErrMalformedAIOutput    = &Error{Kind: KindMalformedAIOutput, Message: "model output is not a JSON array"}
	ErrInvalidAdvisoryShape = &Error{Kind: KindInvalidAdvisoryShape, Message: "advisory output has the wrong shape"}
	ErrEmptyTaxonomy        = &Error{Kind: KindEmptyTaxonomy, Message: "no expense categories configured"}
	ErrTaxonomyIntegrity    = &Error{Kind: KindTaxonomyIntegrity, Message: "expense taxonomy has no \"Other\" category"}
	ErrInsufficientData     = &Error{Kind: KindInsufficientData, Message: "not enough financial data"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "record not found"}
)

// Fail builds an error of the given kind.
func Fail(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf extracts the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
