package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/reactimer/internal/model"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidUsername    = "invalid_username"
	CodeInvalidTimeMs      = "invalid_time_ms"
	CodeInvalidID          = "invalid_id"
	CodeNameRequired       = "name_required"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAuthRequired       = "auth_required"
	CodeUsernameTaken      = "username_taken"
	CodeConflict           = "conflict"
	CodeInternalError      = "internal_error"

	// Per-operation fallbacks for unexpected failures
	CodeAuthFailed     = "auth_failed"
	CodeDBReadFailed   = "db_read_failed"
	CodeDBWriteFailed  = "db_write_failed"
	CodeDBDeleteFailed = "db_delete_failed"
	CodeDBUpdateFailed = "db_update_failed"
)

// httpError combines an HTTP status code with an error code
type httpError struct {
	status int
	code   string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.code
}

// WriteError writes an error response and returns the status used.
// Errors with no mapping are reported as 500 with the fallback code.
func WriteError(w http.ResponseWriter, err error, fallback string) int {
	he := toHTTPError(err, fallback)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.code})
	return he.status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error, fallback string) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Specific input errors before the generic one they wrap
	case errors.Is(err, model.ErrInvalidUsername):
		return &httpError{http.StatusBadRequest, CodeInvalidUsername}
	case errors.Is(err, model.ErrInvalidElapsed):
		return &httpError{http.StatusBadRequest, CodeInvalidTimeMs}
	case errors.Is(err, model.ErrInvalidScoreID):
		return &httpError{http.StatusBadRequest, CodeInvalidID}
	case errors.Is(err, model.ErrNameRequired):
		return &httpError{http.StatusBadRequest, CodeNameRequired}
	case errors.Is(err, model.ErrInvalidInput):
		return &httpError{http.StatusBadRequest, CodeInvalidRequest}

	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, CodeInvalidCredentials}
	case errors.Is(err, model.ErrAuthRequired):
		return &httpError{http.StatusUnauthorized, CodeAuthRequired}
	case errors.Is(err, model.ErrUsernameTaken):
		return &httpError{http.StatusConflict, CodeUsernameTaken}
	case errors.Is(err, model.ErrConflict):
		return &httpError{http.StatusConflict, CodeConflict}

	default:
		if fallback == "" {
			fallback = CodeInternalError
		}
		return &httpError{http.StatusInternalServerError, fallback}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError() error {
	return &httpError{http.StatusBadRequest, CodeInvalidRequest}
}

// NewAuthRequiredError creates an authentication required error
func NewAuthRequiredError() error {
	return &httpError{http.StatusUnauthorized, CodeAuthRequired}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeInternalError}
}
