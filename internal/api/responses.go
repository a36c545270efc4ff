package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"craftcheck/internal/database"
	"craftcheck/internal/pricing"
	"craftcheck/internal/universalis"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// User-facing error messages
const (
	ErrMsgUnknownRecipe    = "unknown recipe"
	ErrMsgPriceUnavailable = "price service unavailable"
	ErrMsgCannotEvaluate   = "cannot evaluate"
	ErrMsgInvalidRequest   = "invalid request"
	ErrMsgInvalidID        = "invalid id"
	ErrMsgInternalError    = "something went wrong"
)

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// mapServiceError converts service errors to an HTTP status and message.
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrRecipeNotFound):
		return http.StatusNotFound, ErrMsgUnknownRecipe
	case errors.Is(err, universalis.ErrServiceUnavailable):
		return http.StatusBadGateway, ErrMsgPriceUnavailable
	case errors.Is(err, pricing.ErrCannotEvaluate), errors.Is(err, pricing.ErrNoViableSource):
		return http.StatusUnprocessableEntity, ErrMsgCannotEvaluate
	default:
		return http.StatusInternalServerError, ErrMsgInternalError
	}
}
