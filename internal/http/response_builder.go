package http

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusForKind maps an error kind to the HTTP status returned to clients.
func statusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.KindInputMissing:
		return http.StatusBadRequest
	case core.KindAuthFailure:
		return http.StatusUnauthorized
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindValidation, core.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case core.KindInferenceFailure, core.KindMalformedAIOutput, core.KindInvalidAdvisoryShape:
		return http.StatusBadGateway
	case core.KindEmptyTaxonomy, core.KindTaxonomyIntegrity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error":{"kind","message"}}. Internal errors
// are logged and their details withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusForKind(kind)
	msg := core.MessageOf(err)

	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldErrorKind, string(kind),
			log.FieldError, err)
	}
	writeErrorStatus(w, status, string(kind), msg)
}

func writeErrorStatus(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: msg}})
}
