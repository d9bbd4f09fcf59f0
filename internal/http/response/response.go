// Package response writes the versioned JSON envelope used by every reader
// settings endpoint, for handlers that sit outside the huma API (middleware,
// router fallbacks).
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainerrors "github.com/listenupapp/listenup-reader/internal/errors"
)

// Version is the envelope format version sent as "v".
const Version = 1

// Envelope provides a consistent JSON response structure.
// Errors carry a human-readable Error plus machine-readable Code and Details.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitzero"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Wrap builds the envelope for a response body with the given status.
func Wrap(status int, data any) Envelope {
	return Envelope{
		Version: Version,
		Success: status < 400,
		Data:    data,
	}
}

// WrapError builds an error envelope.
func WrapError(code, message string, details any) Envelope {
	return Envelope{
		Version: Version,
		Success: false,
		Error:   message,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, WrapError(CodeForStatus(status), message, nil), logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, message, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, message, logger)
}

// TooManyRequests writes a 429 response with a Retry-After header.
func TooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration, logger *slog.Logger) {
	if retryAfter > 0 {
		secs := max(int(retryAfter.Round(time.Second)/time.Second), 1)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, message, logger)
}

func write(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, envelope); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// CodeForStatus maps HTTP status codes to domain error codes.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusPreconditionFailed:
		return string(domainerrors.CodePreconditionFailed)
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	default:
		if status >= 500 {
			return string(domainerrors.CodeInternal)
		}
		return string(domainerrors.CodeValidation)
	}
}

// Codes for transport-level errors that have no domain equivalent.
const (
	CodeRateLimited      = "RATE_LIMITED"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)
