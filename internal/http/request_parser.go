package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

const maxJSONBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return core.Fail(core.KindValidation, "content type must be application/json", nil)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.Fail(core.KindInputMissing, "request body is empty", nil)
		case errors.As(err, &maxErr):
			return core.Fail(core.KindValidation, fmt.Sprintf("request body larger than %d bytes", maxErr.Limit), err)
		default:
			return core.Fail(core.KindValidation, "invalid JSON body: "+err.Error(), err)
		}
	}
	if dec.More() {
		return core.Fail(core.KindValidation, "request body must contain a single JSON object", nil)
	}
	return nil
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// recordRequest is the body of expense and income writes. Pointer fields
// distinguish "absent" from zero on PATCH.
type recordRequest struct {
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	Category    *string  `json:"category"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
