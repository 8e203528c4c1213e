package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthorizationFailure reports that the service rejected the bearer credential.
	// The credential has already been cleared when this error is returned.
	ErrAuthorizationFailure = errors.New("api_client.authorization_failure")
	// ErrInvalidBaseURL indicates that the configured base address is not an absolute URL.
	ErrInvalidBaseURL = errors.New("api_client.invalid_base_url")
	// ErrMissingCredentials indicates that the client was built without a credential store.
	ErrMissingCredentials = errors.New("api_client.missing_credentials")
)

// ResponseError carries a non-2xx, non-401 response back to the caller untouched.
type ResponseError struct {
	Method   string
	Path     string
	Response *Response
	// Message is the service-provided "message" field, empty when absent.
	Message string
}

func (responseError *ResponseError) Error() string {
	if responseError.Message != "" {
		return fmt.Sprintf("api_client.response.%d: %s %s: %s", responseError.StatusCode(), responseError.Method, responseError.Path, responseError.Message)
	}
	return fmt.Sprintf("api_client.response.%d: %s %s", responseError.StatusCode(), responseError.Method, responseError.Path)
}

// StatusCode returns the HTTP status of the failed response.
func (responseError *ResponseError) StatusCode() int {
	if responseError == nil || responseError.Response == nil {
		return 0
	}
	return responseError.Response.StatusCode
}

// MessageOf returns the service-provided message carried by err, or fallback
// when err carries none (transport failures, empty bodies).
func MessageOf(err error, fallback string) string {
	var responseError *ResponseError
	if errors.As(err, &responseError) && strings.TrimSpace(responseError.Message) != "" {
		return responseError.Message
	}
	return fallback
}

func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
