// Package handler implements the HTTP handlers for the score service
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/reactimer/internal/api/apierr"
	"github.com/mcoot/reactimer/internal/middleware"
	"github.com/mcoot/reactimer/internal/model"
)

const maxBodyBytes = 1 << 20

// decodeBody parses the body as JSON whatever its content type; an empty body decodes as {}
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apierr.NewInvalidRequestError()
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apierr.NewInvalidRequestError()
	}
	return nil
}

// writeError writes the mapped error response and logs unexpected failures
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apierr.WriteError(w, err, fallback)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("request_id", middleware.RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("code", fallback),
			slog.Any("error", err),
		)
	}
}

// outcome labels an operation result for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, model.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, model.ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
