package backend

import (
	"errors"
	"net/http"
)

// APIError is every failed call to the remote API, normalized at the client
// boundary. Status is zero for failures that never produced a response.
type APIError struct {
	Message string
	Status  int
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

const defaultMessage = "something went wrong"

var statusMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusUnauthorized:        "invalid credentials",
	http.StatusForbidden:           "access denied",
	http.StatusNotFound:            "resource not found",
	http.StatusConflict:            "user already exists",
	http.StatusInternalServerError: "internal server error",
}

// StatusMessage is the default message for status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return defaultMessage
}

// IsAuthFailure reports whether err is a 401 or 403 from the remote API.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
