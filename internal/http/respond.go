package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/marketplace/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func respondUnauthorized(w http.ResponseWriter) {
	respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
}

// handleServiceError converts domain errors into HTTP status codes. Unknown
// errors are logged and hidden behind a generic message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		httpStatus, code = http.StatusBadRequest, "empty_cart"
	case errors.Is(err, domain.ErrSelfPurchase):
		httpStatus, code = http.StatusBadRequest, "self_purchase"
	case errors.Is(err, domain.ErrProductUnavailable):
		httpStatus, code = http.StatusBadRequest, "product_unavailable"
	case errors.Is(err, domain.ErrValidation):
		httpStatus, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotAuthorized):
		httpStatus, code = http.StatusForbidden, "not_authorized"
	case errors.Is(err, domain.ErrNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrDuplicateCheckout):
		httpStatus, code = http.StatusConflict, "duplicate_checkout"
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
		return
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}
