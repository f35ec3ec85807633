package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// RequiresPassword tells clients to prompt and retry. Only set for
	// password_required; distinguishes it from a failed password attempt
	// even though both map to 401.
	RequiresPassword bool `json:"requiresPassword,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response: %v", err)
	}
}

// writeError translates a domain error into an HTTP response.
//
// Infrastructure errors (anything that is not a StoreError) map to 500
// with a generic message; their details are logged, not leaked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *storage.StoreError
	if !errors.As(err, &se) {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "internal server error",
			Code:  storage.ErrInternal.String(),
		})
		return
	}

	body := errorBody{Error: se.Message, Code: se.Code.String()}
	if se.Code == storage.ErrPasswordRequired {
		body.RequiresPassword = true
	}

	writeJSON(w, statusOf(se.Code), body)
}

// statusOf maps a domain error code to an HTTP status.
func statusOf(code storage.ErrorCode) int {
	switch code {
	case storage.ErrNotFound:
		return http.StatusNotFound
	case storage.ErrExpired:
		return http.StatusGone
	case storage.ErrAccessLimitReached:
		return http.StatusTooManyRequests
	case storage.ErrPasswordRequired, storage.ErrInvalidPassword:
		return http.StatusUnauthorized
	case storage.ErrForbidden:
		return http.StatusForbidden
	case storage.ErrInvalidArgument:
		return http.StatusBadRequest
	case storage.ErrUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// outcomeOf labels an operation result for metrics. nil means success.
func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return storage.CodeOf(err).String()
}
