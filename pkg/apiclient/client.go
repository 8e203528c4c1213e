// Package apiclient issues authenticated calls against the hotel REST service.
//
// Every request carries "Authorization: Bearer <token>" derived from the
// credential store at construction time. A 401 response clears the store,
// sends an interactive user back to the entry screen, and surfaces as
// ErrAuthorizationFailure; every other failure reaches the caller as is.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tyemirov/hoteldesk/internal/metrics"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
	"github.com/tyemirov/hoteldesk/pkg/navigation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the address of the hotel REST service in local setups.
	DefaultBaseURL = "http://localhost:3030/api/v1"
	// DefaultTimeout bounds a single request when Config.Timeout is zero.
	DefaultTimeout = 15 * time.Second

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Config configures the base address and per-request timeout.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Credentials is the part of the credential store the client may touch:
// it reads once at construction and clears on authorization failure.
type Credentials interface {
	credentialstore.Reader
	credentialstore.Clearer
}

// Client performs authenticated calls. Create one per server-side request, or
// one per interactive process.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	credentials    Credentials
	requestContext RequestContext
	navigator      navigation.Navigator
	logger         *zap.Logger
	metrics        metrics.Recorder
	limiter        *rate.Limiter

	headerMutex    sync.RWMutex
	defaultHeaders http.Header
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) { client.httpClient = httpClient }
}

// WithNavigator sets where interactive clients send the user after a 401.
func WithNavigator(navigator navigation.Navigator) Option {
	return func(client *Client) { client.navigator = navigator }
}

// WithLogger sets a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) { client.logger = logger }
}

// WithMetrics sets the event recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(client *Client) { client.metrics = recorder }
}

// WithRateLimit throttles outbound calls. A nil limiter disables throttling.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(client *Client) { client.limiter = limiter }
}

// New constructs a client bound to configuration.BaseURL with the bearer
// header derived from credentials.
func New(configuration Config, credentials Credentials, requestContext RequestContext, options ...Option) (*Client, error) {
	if credentials == nil {
		return nil, fmt.Errorf("api_client.new: %w", ErrMissingCredentials)
	}
	baseURL := strings.TrimSpace(configuration.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, parseErr := url.Parse(baseURL)
	if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api_client.new: %w: %q", ErrInvalidBaseURL, baseURL)
	}
	timeout := configuration.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		credentials:    credentials,
		requestContext: requestContext,
		navigator:      navigation.Discard,
		logger:         zap.NewNop(),
		metrics:        metrics.Nop{},
		defaultHeaders: make(http.Header),
	}
	for _, option := range options {
		option(client)
	}
	if client.logger == nil {
		client.logger = zap.NewNop()
	}
	if client.metrics == nil {
		client.metrics = metrics.Nop{}
	}
	if client.navigator == nil {
		client.navigator = navigation.Discard
	}

	token := credentials.Read(requestContext.Request())
	client.defaultHeaders.Set(authorizationHeader, bearerPrefix+token)
	client.defaultHeaders.Set("Accept", "application/json")
	return client, nil
}

// SetBearerToken replaces the default Authorization header in place.
func (client *Client) SetBearerToken(token string) {
	client.headerMutex.Lock()
	defer client.headerMutex.Unlock()
	client.defaultHeaders.Set(authorizationHeader, bearerPrefix+token)
}

// DefaultHeader returns the value of a default request header.
func (client *Client) DefaultHeader(name string) string {
	client.headerMutex.RLock()
	defer client.headerMutex.RUnlock()
	return client.defaultHeaders.Get(name)
}

// RequestContext reports where the client runs.
func (client *Client) RequestContext() RequestContext {
	return client.requestContext
}

// Get issues a GET request.
func (client *Client) Get(ctx context.Context, path string) (*Response, error) {
	return client.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (client *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return client.Do(ctx, http.MethodPost, path, body)
}

// Patch issues a PATCH request with a JSON body.
func (client *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return client.Do(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE request.
func (client *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return client.Do(ctx, http.MethodDelete, path, nil)
}

// Do issues method against path relative to the base address. A nil body sends
// no payload; any other value is encoded as JSON.
func (client *Client) Do(ctx context.Context, method string, path string, body any) (*Response, error) {
	if client.limiter != nil {
		if waitErr := client.limiter.Wait(ctx); waitErr != nil {
			return nil, fmt.Errorf("api_client.rate_limit: %w", waitErr)
		}
	}

	var payload io.Reader
	if body != nil {
		encoded, encodeErr := json.Marshal(body)
		if encodeErr != nil {
			return nil, fmt.Errorf("api_client.encode: %w", encodeErr)
		}
		payload = bytes.NewReader(encoded)
	}

	request, requestErr := http.NewRequestWithContext(ctx, method, client.resolve(path), payload)
	if requestErr != nil {
		return nil, fmt.Errorf("api_client.request: %w", requestErr)
	}
	client.headerMutex.RLock()
	for name, values := range client.defaultHeaders {
		request.Header[name] = append([]string(nil), values...)
	}
	client.headerMutex.RUnlock()
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	httpResponse, doErr := client.httpClient.Do(request)
	if doErr != nil {
		client.metrics.Increment(metrics.EventRequestFailed)
		client.logger.Warn("api request failed",
			zap.String("code", "api.transport_error"),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(doErr))
		return nil, fmt.Errorf("api_client.transport: %w", doErr)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	responseBody, readErr := io.ReadAll(httpResponse.Body)
	if readErr != nil {
		return nil, fmt.Errorf("api_client.read_body: %w", readErr)
	}
	response := &Response{
		StatusCode: httpResponse.StatusCode,
		Header:     httpResponse.Header,
		Body:       responseBody,
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return response, nil
	}
	if response.StatusCode == http.StatusUnauthorized {
		return nil, client.rejectCredential(method, path)
	}

	client.metrics.Increment(metrics.EventRequestFailed)
	return nil, &ResponseError{
		Method:   method,
		Path:     path,
		Response: response,
		Message:  extractMessage(responseBody),
	}
}

func (client *Client) rejectCredential(method string, path string) error {
	client.metrics.Increment(metrics.EventUnauthorized)
	client.logger.Warn("credential rejected by service",
		zap.String("code", "api.unauthorized"),
		zap.String("method", method),
		zap.String("path", path),
		zap.Bool("interactive", client.requestContext.IsInteractive()))
	if clearErr := client.credentials.Clear(); clearErr != nil {
		client.logger.Error("credential clear failed",
			zap.String("code", "api.unauthorized.clear_failed"),
			zap.Error(clearErr))
	}
	if client.requestContext.IsInteractive() {
		client.navigator.Navigate(navigation.EntryRoute)
	}
	return ErrAuthorizationFailure
}

func (client *Client) resolve(path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if trimmed == "" {
		return client.baseURL
	}
	return client.baseURL + "/" + trimmed
}

// Response is a completed 2xx exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into target.
func (response *Response) DecodeJSON(target any) error {
	if len(bytes.TrimSpace(response.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(response.Body, target); err != nil {
		return fmt.Errorf("api_client.decode: %w", err)
	}
	return nil
}
