// Package handler contains the HTTP handlers of the skill tracker API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the request (path params, query, JSON body)
//  2. Call one service method with the authenticated user ID
//  3. Write the JSON response, or map the service error to a status code
//
// Handlers hold no business rules; those live in the service package.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/skill-tracker/internal/apperror"
	"github.com/sakif/skill-tracker/internal/auth"
)

// maxBodyBytes caps request bodies; every payload in this API is tiny.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error response:
//
//	{"error": "not_found", "message": "skill not found with id abc123"}
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sets headers and status before the body; header changes after
// the first Write are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a service error to a status code.
//
//	apperror.ErrValidation   → 400
//	apperror.ErrUnauthorized → 401
//	apperror.ErrForbidden    → 403
//	apperror.ErrNotFound     → 404
//	apperror.ErrConflict     → 409
//	anything else            → 500, details logged but never sent
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := http.StatusInternalServerError, "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, errorType = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, errorType = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, errorType = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, errorType = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status, errorType = http.StatusConflict, "conflict"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message, Field: appErr.Field})
			return
		}
	}

	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected so typos in field names surface as 400s instead of silent zeros.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body must not be empty")
		}
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}

// userID returns the caller set by auth.RequireAuth. Routes using it are
// always mounted behind that middleware.
func userID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}
