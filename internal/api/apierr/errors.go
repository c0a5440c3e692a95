package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidProfileID   = "INVALID_PROFILE_ID"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeAdminDisabled      = "ADMIN_DISABLED"
	CodeProfileNotFound    = "PROFILE_NOT_FOUND"
	CodeProfileOffline     = "PROFILE_OFFLINE"
	CodeShuttingDown       = "SHUTTING_DOWN"
	CodeTimeout            = "TIMEOUT"
	CodeEconomyUnavailable = "ECONOMY_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrInvalidProfileID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidProfileID, "Profile id must be a UUID"}}
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "Amount must be positive"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile not found"}}
	case errors.Is(err, model.ErrProfileNotCached):
		return &httpError{http.StatusConflict, APIError{CodeProfileOffline, "Player is not online"}}
	case errors.Is(err, model.ErrWorkerClosed):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeShuttingDown, "Server is shutting down"}}
	case errors.Is(err, model.ErrEconomyUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeEconomyUnavailable, "No economy is configured"}}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Timed out waiting for storage"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid admin token"}}
	case errors.Is(err, auth.ErrAdminDisabled):
		return &httpError{http.StatusForbidden, APIError{CodeAdminDisabled, "Admin access is not configured"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewTimeoutError is returned when the main loop did not answer in time
func NewTimeoutError() error {
	return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Timed out waiting for the main loop"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInternalErrorForRequest is an internal error whose message names the
// request id the server logged the failure under
func NewInternalErrorForRequest(requestID string) error {
	if requestID == "" {
		return NewInternalError()
	}
	msg := fmt.Sprintf("Internal server error (request %s)", requestID)
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, msg}}
}
