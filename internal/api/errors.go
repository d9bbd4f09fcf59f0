package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/listenup-reader/internal/errors"
	"github.com/listenupapp/listenup-reader/internal/http/response"
	"github.com/listenupapp/listenup-reader/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	for _, err := range errs {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return &APIError{
				status:  domainErr.HTTPStatus(),
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}
		}

		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			return &APIError{
				status:  storeErr.HTTPCode(),
				Code:    response.CodeForStatus(storeErr.HTTPCode()),
				Message: storeErr.Message,
			}
		}
	}

	// huma reports request validation failures as 422; the API uses 400.
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	apiErr := &APIError{
		status:  status,
		Code:    response.CodeForStatus(status),
		Message: message,
	}
	if details := fieldDetails(errs); len(details) > 0 {
		apiErr.Details = details
	}
	return apiErr
}

// fieldDetails collects huma's per-location validation messages.
func fieldDetails(errs []error) map[string]string {
	var details map[string]string
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if !errors.As(err, &detail) {
			continue
		}
		if details == nil {
			details = make(map[string]string)
		}
		loc := detail.Location
		if loc == "" {
			loc = "request"
		}
		details[loc] = detail.Message
	}
	return details
}
