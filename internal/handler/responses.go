package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/syncapps/chanbridge/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// Helper functions for responding

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Get a buffer from the pool to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	// Encode to the buffer first
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Log the error - we can't write to response at this point since headers are sent
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	// Write the buffer to the response
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// mapServiceErrorToUserMessage maps domain errors to HTTP status codes and
// messages that callers can act upon without seeing internals.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, "Unknown error"
	}

	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		return http.StatusNotFound, ErrMsgLinkNotFoundHTTP
	case errors.Is(err, domain.ErrTeamNotFound):
		return http.StatusNotFound, ErrMsgTeamNotConnected
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusConflict, ErrMsgTeamNotConnected
	case errors.Is(err, domain.ErrOrgNotFound):
		return http.StatusNotFound, "Space organization is not installed"
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}
