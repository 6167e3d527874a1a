package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is a sentinel error of the backend client
type Error string

// Error implements the error interface
func (e Error) Error() string {
	return string(e)
}

// Unavailable reports whether the backend could not be reached at all
func (e Error) Unavailable() bool {
	return e == ErrUnavailable || e == ErrCircuitOpen
}

const (
	// ErrUnavailable is returned when the request never got a response
	ErrUnavailable Error = "backend: unavailable"
	// ErrCircuitOpen is returned without a request while the breaker is open
	ErrCircuitOpen Error = "backend: circuit open"
	// ErrRequestFailed is wrapped by every ServerError
	ErrRequestFailed Error = "backend: request failed"
	// ErrInvalidResponse is returned when a 2xx body cannot be decoded
	ErrInvalidResponse Error = "backend: invalid response"
	// ErrInvalidRequest is returned when a payload fails validation before sending
	ErrInvalidRequest Error = "backend: invalid request"
)

// ServerError is a non-2xx answer from the store backend
type ServerError struct {
	Status  int
	Message string // Message reported in the body, empty if none could be parsed
}

// Error implements the error interface
func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Message)
}

// ServerMessage returns the message reported by the backend
func (e *ServerError) ServerMessage() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrRequestFailed
func (e *ServerError) Unwrap() error {
	return ErrRequestFailed
}

// IsServerFault reports a 5xx status
func (e *ServerError) IsServerFault() bool {
	return e.Status >= 500
}

// errorBody is the error shape of the store backend
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// newServerError builds a ServerError from a response body. Bodies that are
// not the backend's JSON error shape leave Message empty.
func newServerError(status int, body []byte) *ServerError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return &ServerError{Status: status}
	}
	msg := strings.TrimSpace(eb.Error)
	if msg == "" {
		msg = strings.TrimSpace(eb.Message)
	}
	return &ServerError{Status: status, Message: msg}
}
