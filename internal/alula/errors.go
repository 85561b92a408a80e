package alula

import "fmt"

// AuthError means the credentials are invalid or expired beyond refresh.
// Callers treat it as fatal for the current cycle.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Msg)
}

// APIError is a non-auth error response from the vendor API. Transient:
// callers keep polling on schedule.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Msg)
}

// ConnectionError wraps transport-level failures (DNS, TCP, TLS, timeouts).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
