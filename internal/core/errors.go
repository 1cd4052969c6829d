// Package core provides shared types, interfaces, and the error taxonomy for
// the chat gateway.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType represents the class of error that occurred
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or missing request field,
	// rejected before any provider is contacted (400)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeConfiguration indicates missing server-side configuration such
	// as an absent provider credential; fatal for the call, never retried
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeProvider indicates a transport failure or non-success status
	// from an upstream provider (502)
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeAuthentication indicates a rejected caller credential (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
)

// GatewayError is the base error type for all gateway errors
type GatewayError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *GatewayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeProvider:
		return http.StatusBadGateway
	case ErrorTypeConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *GatewayError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewValidationError creates an invalid request error (400)
func NewValidationError(message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewConfigurationError creates a configuration error (500). Used when a
// required credential or setting is absent; the call is not retried.
func NewConfigurationError(provider, message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Provider:   provider,
	}
}

// NewProviderError creates a provider transport error (502)
func NewProviderError(provider string, statusCode int, message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeProvider,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
		Err:        err,
	}
}

// NewAuthenticationError creates an authentication error (401)
func NewAuthenticationError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// ParseProviderError parses an error response body from a provider and returns
// an appropriate GatewayError. All upstream failures surface as provider
// errors with a 502 so callers never see raw upstream status codes.
func ParseProviderError(provider string, statusCode int, body []byte, originalErr error) *GatewayError {
	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error.Message != "" {
		message = errorResponse.Error.Message
	}
	if message == "" {
		message = fmt.Sprintf("provider returned status %d", statusCode)
	}

	return NewProviderError(provider, http.StatusBadGateway, message, originalErr)
}
