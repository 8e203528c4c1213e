package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tyemirov/hoteldesk/internal/metrics"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
	"github.com/tyemirov/hoteldesk/pkg/navigation"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, server *httptest.Server, store credentialstore.Store, requestContext RequestContext, options ...Option) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: server.URL + "/api/v1"}, store, requestContext, append([]Option{WithLogger(zaptest.NewLogger(t))}, options...)...)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client
}

func statusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewDerivesBearerHeaderFromStore(t *testing.T) {
	t.Parallel()

	server := statusServer(t, http.StatusOK, `{}`)

	store := credentialstore.NewMemoryStore()
	if err := store.Write("T", credentialstore.DefaultOptions()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	client := newTestClient(t, server, store, Interactive())
	if header := client.DefaultHeader("Authorization"); header != "Bearer T" {
		t.Fatalf("expected %q, got %q", "Bearer T", header)
	}

	emptyClient := newTestClient(t, server, credentialstore.NewMemoryStore(), Interactive())
	if header := emptyClient.DefaultHeader("Authorization"); header != "Bearer " {
		t.Fatalf("expected %q, got %q", "Bearer ", header)
	}
}

func TestNewServerSideReadsRequestCookie(t *testing.T) {
	t.Parallel()

	server := statusServer(t, http.StatusOK, `{}`)
	inbound := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	inbound.AddCookie(&http.Cookie{Name: credentialstore.TokenName, Value: "cookie-token"})

	store := credentialstore.NewMemoryStore()
	if err := store.Write("process-token", credentialstore.DefaultOptions()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	client := newTestClient(t, server, store, ServerSide(inbound))
	if header := client.DefaultHeader("Authorization"); header != "Bearer cookie-token" {
		t.Fatalf("expected cookie token in header, got %q", header)
	}
	if client.RequestContext().IsInteractive() {
		t.Fatalf("expected server-side context")
	}
}

func TestRequestsCarryDefaultHeaderAndJoinPaths(t *testing.T) {
	t.Parallel()

	var seenPath, seenAuthorization, seenContentType string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seenPath = request.URL.Path
		seenAuthorization = request.Header.Get("Authorization")
		seenContentType = request.Header.Get("Content-Type")
		_, _ = writer.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, credentialstore.NewMemoryStore(), Interactive())
	client.SetBearerToken("fresh")

	response, err := client.Post(context.Background(), "login", map[string]string{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenPath != "/api/v1/login" {
		t.Fatalf("expected /api/v1/login, got %q", seenPath)
	}
	if seenAuthorization != "Bearer fresh" {
		t.Fatalf("expected updated bearer header, got %q", seenAuthorization)
	}
	if seenContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", seenContentType)
	}
	var payload struct {
		OK bool `json:"ok"`
	}
	if decodeErr := response.DecodeJSON(&payload); decodeErr != nil || !payload.OK {
		t.Fatalf("unexpected decode result: %v %+v", decodeErr, payload)
	}

	if _, err := client.Get(context.Background(), "/clients/42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenPath != "/api/v1/clients/42" {
		t.Fatalf("expected /api/v1/clients/42, got %q", seenPath)
	}
}

func TestUnauthorizedClearsStoreNavigatesAndReturnsAuthorizationFailure(t *testing.T) {
	t.Parallel()

	server := statusServer(t, http.StatusUnauthorized, `{"message":"token expired"}`)
	store := credentialstore.NewMemoryStore()
	if err := store.Write("stale", credentialstore.DefaultOptions()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	recorder := navigation.NewRecorder()
	counters := metrics.NewCounterMetrics()
	client := newTestClient(t, server, store, Interactive(), WithNavigator(recorder), WithMetrics(counters))

	response, err := client.Get(context.Background(), "clients")
	if response != nil {
		t.Fatalf("expected no response on 401")
	}
	if !errors.Is(err, ErrAuthorizationFailure) {
		t.Fatalf("expected ErrAuthorizationFailure, got %v", err)
	}
	var responseError *ResponseError
	if errors.As(err, &responseError) {
		t.Fatalf("401 must not surface as ResponseError")
	}
	if token := store.Read(nil); token != "" {
		t.Fatalf("expected cleared store, got %q", token)
	}
	if visits := recorder.Visits(); len(visits) != 1 || visits[0] != navigation.EntryRoute {
		t.Fatalf("expected single navigation to entry route, got %v", visits)
	}
	if count := counters.Count(metrics.EventUnauthorized); count != 1 {
		t.Fatalf("expected one unauthorized event, got %d", count)
	}
}

func TestUnauthorizedServerSideDoesNotNavigate(t *testing.T) {
	t.Parallel()

	server := statusServer(t, http.StatusUnauthorized, ``)
	inbound := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	inbound.AddCookie(&http.Cookie{Name: credentialstore.TokenName, Value: "stale"})
	writer := httptest.NewRecorder()
	store := credentialstore.NewCookieStore(inbound, writer, credentialstore.CookieConfig{})
	recorder := navigation.NewRecorder()

	client := newTestClient(t, server, store, ServerSide(inbound), WithNavigator(recorder))
	if _, err := client.Get(context.Background(), "me"); !errors.Is(err, ErrAuthorizationFailure) {
		t.Fatalf("expected ErrAuthorizationFailure, got %v", err)
	}
	if len(recorder.Visits()) != 0 {
		t.Fatalf("server-side client must not navigate, got %v", recorder.Visits())
	}
	if token := store.Read(nil); token != "" {
		t.Fatalf("expected cookie cleared, got %q", token)
	}
	if cookies := writer.Result().Cookies(); len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expiring cookie, got %+v", cookies)
	}
}

func TestNonUnauthorizedFailuresPassThrough(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "forbidden", status: http.StatusForbidden, body: `{"message":"not allowed"}`, message: "not allowed"},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, message: ""},
		{name: "validation", status: http.StatusBadRequest, body: `{"message":"E-mail already registered"}`, message: "E-mail already registered"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := statusServer(t, testCase.status, testCase.body)
			store := credentialstore.NewMemoryStore()
			if err := store.Write("valid", credentialstore.DefaultOptions()); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			recorder := navigation.NewRecorder()
			client := newTestClient(t, server, store, Interactive(), WithNavigator(recorder))

			_, err := client.Get(context.Background(), "clients")
			if errors.Is(err, ErrAuthorizationFailure) {
				t.Fatalf("%d must not be converted to ErrAuthorizationFailure", testCase.status)
			}
			var responseError *ResponseError
			if !errors.As(err, &responseError) {
				t.Fatalf("expected ResponseError, got %T %v", err, err)
			}
			if responseError.StatusCode() != testCase.status {
				t.Fatalf("expected status %d, got %d", testCase.status, responseError.StatusCode())
			}
			if string(responseError.Response.Body) != testCase.body {
				t.Fatalf("expected body %q, got %q", testCase.body, string(responseError.Response.Body))
			}
			if responseError.Message != testCase.message {
				t.Fatalf("expected message %q, got %q", testCase.message, responseError.Message)
			}
			if token := store.Read(nil); token != "valid" {
				t.Fatalf("store must be untouched, got %q", token)
			}
			if len(recorder.Visits()) != 0 {
				t.Fatalf("no navigation expected, got %v", recorder.Visits())
			}
		})
	}
}

func TestTransportFailurePassesThrough(t *testing.T) {
	t.Parallel()

	server := statusServer(t, http.StatusOK, `{}`)
	store := credentialstore.NewMemoryStore()
	if err := store.Write("valid", credentialstore.DefaultOptions()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	client := newTestClient(t, server, store, Interactive())
	server.Close()

	_, err := client.Get(context.Background(), "clients")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if errors.Is(err, ErrAuthorizationFailure) {
		t.Fatalf("transport failure must not be an authorization failure")
	}
	if message := MessageOf(err, "fallback"); message != "fallback" {
		t.Fatalf("expected fallback message, got %q", message)
	}
	if token := store.Read(nil); token != "valid" {
		t.Fatalf("store must be untouched, got %q", token)
	}
}

func TestNewValidatesConfiguration(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, nil, Interactive()); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := New(Config{BaseURL: "not a url"}, credentialstore.NewMemoryStore(), Interactive()); !errors.Is(err, ErrInvalidBaseURL) {
		t.Fatalf("expected ErrInvalidBaseURL, got %v", err)
	}
	client, err := New(Config{}, credentialstore.NewMemoryStore(), Interactive())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", client.baseURL)
	}
}

func TestRateLimitHonoursContextCancellation(t *testing.T) {
	t.Parallel()

	server := statusServer(t, http.StatusOK, `{}`)
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	client := newTestClient(t, server, credentialstore.NewMemoryStore(), Interactive(), WithRateLimit(limiter))

	if _, err := client.Get(context.Background(), "rooms"); err != nil {
		t.Fatalf("first call should pass the limiter: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := client.Get(ctx, "rooms"); err == nil {
		t.Fatalf("expected limiter wait to fail once the context expires")
	}
}
