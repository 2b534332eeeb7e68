package ercot

import "fmt"

// AuthenticationError means the credential exchange itself was rejected.
// It is fatal: retrying with the same credentials cannot succeed.
type AuthenticationError struct {
	StatusCode int
	Message    string
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// UnknownEndpointError is returned when a caller names an endpoint the
// registry does not know. No network call is made.
type UnknownEndpointError struct {
	Name string
}

func (e *UnknownEndpointError) Error() string {
	return fmt.Sprintf("unknown endpoint %q: use the endpoint listing to see available endpoints", e.Name)
}

// InvalidParameterError is returned when a query parameter is not accepted by
// the target endpoint. No network call is made.
type InvalidParameterError struct {
	Endpoint  string
	Parameter string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("parameter %q is not valid for endpoint %q", e.Parameter, e.Endpoint)
}

// RequestError is a non-auth HTTP failure, surfaced after the retry budget is
// exhausted (5xx) or immediately (other 4xx).
type RequestError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("endpoint %q returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}
