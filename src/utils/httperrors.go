package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPError is an error carrying the status code it is served with.
type HTTPError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(code int, message string) error {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// BadRequest creates a 400 Bad Request error
func BadRequest(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

// NotFound creates a 404 Not Found error
func NotFound(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

// Conflict creates a 409 Conflict error
func Conflict(message string) error {
	return NewHTTPError(http.StatusConflict, message)
}

// UnprocessableEntity creates a 422 error for well formed requests carrying
// unusable values.
func UnprocessableEntity(message string) error {
	return NewHTTPError(http.StatusUnprocessableEntity, message)
}

// ErrorStatus maps err to the status it is served with: 504 once a deadline
// passed, the HTTPError code when there is one and 500 otherwise.
func ErrorStatus(err error) (int, string) {
	var httpErr *HTTPError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Message
	case err != nil:
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "Unhandled error"
	}
}

// WriteError sends err as a JSON {"error": message} body.
func WriteError(w http.ResponseWriter, err error) {
	status, message := ErrorStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
