package models

import "fmt"

// APIError represents a non-2xx response from the simulation backend.
// Message holds the backend's "detail" text when it sent one as a string
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no detail"
	}
	if e.RequestID != "" {
		return fmt.Sprintf("phosphene api error (status %d, request_id: %s): %s", e.StatusCode, e.RequestID, msg)
	}
	return fmt.Sprintf("phosphene api error (status %d): %s", e.StatusCode, msg)
}

// NetworkError represents a network-level error
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError represents a success response whose body did not have the expected shape
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError represents a client-side validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
