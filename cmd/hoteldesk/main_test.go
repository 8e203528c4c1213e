package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyemirov/hoteldesk/internal/apitest"
	"github.com/tyemirov/hoteldesk/internal/hotel"
	"github.com/tyemirov/hoteldesk/pkg/apiclient"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
	"go.uber.org/zap"
)

func withServeHTTPStub(stub func(server *http.Server) error) func() {
	original := serveHTTP
	serveHTTP = stub
	return func() { serveHTTP = original }
}

func withCredentialStoreStub(store credentialstore.Store) func() {
	original := openCredentialStore
	openCredentialStore = func(ctx context.Context, storeURL string) (credentialstore.Store, error) {
		return store, nil
	}
	return func() { openCredentialStore = original }
}

func executeCommand(t *testing.T, arguments ...string) (string, string, error) {
	t.Helper()
	rootCmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(arguments)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadCLIConfigDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cliConfig, err := LoadCLIConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cliConfig.APIBaseURL != apiclient.DefaultBaseURL {
		t.Fatalf("expected default base URL, got %q", cliConfig.APIBaseURL)
	}
	if cliConfig.RequestTimeout != apiclient.DefaultTimeout {
		t.Fatalf("expected default timeout, got %v", cliConfig.RequestTimeout)
	}
}

func TestLoadCLIConfigValidation(t *testing.T) {
	testCases := []struct {
		name     string
		settings map[string]any
		expected string
	}{
		{
			name:     "relative base url",
			settings: map[string]any{"api_base_url": "api/v1"},
			expected: "config.invalid_api_base_url: api_base_url must be an absolute URL",
		},
		{
			name:     "negative timeout",
			settings: map[string]any{"request_timeout": -time.Second},
			expected: "config.invalid_request_timeout: request_timeout must not be negative",
		},
		{
			name:     "negative rate limit",
			settings: map[string]any{"rate_limit": -1.0},
			expected: "config.invalid_rate_limit: rate_limit must not be negative",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			for key, value := range testCase.settings {
				viper.Set(key, value)
			}
			_, err := LoadCLIConfig()
			if err == nil || err.Error() != testCase.expected {
				t.Fatalf("expected error %q, got %v", testCase.expected, err)
			}
		})
	}
}

func TestLoadServeConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("listen_addr", ":9090")
	viper.Set("enable_cors", true)
	if _, err := LoadServeConfig(CLIConfig{}); err == nil || !strings.HasPrefix(err.Error(), configCodeMissingCORSOrigins) {
		t.Fatalf("expected missing origins error, got %v", err)
	}

	viper.Set("cors_allowed_origins", []string{"https://hotel.example.com"})
	viper.Set("cookie_domain", "hotel.example.com")
	serveConfig, err := LoadServeConfig(CLIConfig{APIBaseURL: "http://api.example.com/api/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if serveConfig.Dashboard.SameSiteMode != http.SameSiteNoneMode {
		t.Fatalf("expected SameSite=None with CORS, got %v", serveConfig.Dashboard.SameSiteMode)
	}
	if serveConfig.Dashboard.CookieDomain != "hotel.example.com" || serveConfig.Dashboard.APIBaseURL != "http://api.example.com/api/v1" {
		t.Fatalf("unexpected dashboard config %+v", serveConfig.Dashboard)
	}

	viper.Set("listen_addr", " ")
	if _, err := LoadServeConfig(CLIConfig{}); err == nil || err.Error() != "config.missing_listen_addr: listen_addr must be provided" {
		t.Fatalf("expected missing listen address error, got %v", err)
	}
}

func TestRunServeMissingConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	viper.Reset()
	defer viper.Reset()

	err := runServe(&cobra.Command{}, nil)
	expectedMessage := "config.uninitialized_cli_config: cli configuration not prepared; PersistentPreRunE must execute before RunE"
	if err == nil || err.Error() != expectedMessage {
		t.Fatalf("expected error %q, got %v", expectedMessage, err)
	}
}

func TestRunServeSuccess(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	defer gin.SetMode(gin.TestMode)

	restoreServe := withServeHTTPStub(func(server *http.Server) error {
		if server.Handler == nil {
			t.Fatalf("expected handler to be configured")
		}
		return http.ErrServerClosed
	})
	defer restoreServe()

	viper.Set("listen_addr", ":0")
	viper.Set("dev_insecure_http", true)
	viper.Set("enable_cors", true)
	viper.Set("cors_allowed_origins", []string{"http://localhost:3000"})
	viper.Set("rate_limit", 5.0)

	cliConfig, err := LoadCLIConfig()
	if err != nil {
		t.Fatalf("expected configuration load to succeed, got %v", err)
	}
	command := &cobra.Command{}
	command.SetContext(context.WithValue(context.Background(), cliConfigContextKey, cliConfig))

	if err := runServe(command, nil); err != nil {
		t.Fatalf("expected runServe to succeed, got %v", err)
	}
}

func TestRunServeReportsListenFailure(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	defer gin.SetMode(gin.TestMode)

	restoreServe := withServeHTTPStub(func(server *http.Server) error {
		return errors.New("address in use")
	})
	defer restoreServe()

	viper.Set("listen_addr", ":0")
	command := &cobra.Command{}
	command.SetContext(context.WithValue(context.Background(), cliConfigContextKey, CLIConfig{APIBaseURL: apiclient.DefaultBaseURL}))

	if err := runServe(command, nil); err == nil || err.Error() != "listen error: address in use" {
		t.Fatalf("expected listen error, got %v", err)
	}
}

func TestServeUntilStoppedDrainsInFlightRequests(t *testing.T) {
	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	if listenErr != nil {
		t.Fatalf("listen failed: %v", listenErr)
	}
	restoreServe := withServeHTTPStub(func(server *http.Server) error {
		return server.Serve(listener)
	})
	defer restoreServe()

	requestStarted := make(chan struct{})
	releaseRequest := make(chan struct{})
	server := &http.Server{Handler: http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		close(requestStarted)
		<-releaseRequest
		writer.WriteHeader(http.StatusNoContent)
	})}

	stopSignals := make(chan os.Signal, 1)
	served := make(chan error, 1)
	go func() {
		served <- serveUntilStopped(server, stopSignals, 5*time.Second, zap.NewNop())
	}()

	responded := make(chan int, 1)
	go func() {
		response, err := http.Get("http://" + listener.Addr().String() + "/")
		if err != nil {
			responded <- 0
			return
		}
		_ = response.Body.Close()
		responded <- response.StatusCode
	}()

	<-requestStarted
	stopSignals <- syscall.SIGTERM
	select {
	case err := <-served:
		t.Fatalf("serve returned before the in-flight request finished: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(releaseRequest)
	if status := <-responded; status != http.StatusNoContent {
		t.Fatalf("expected in-flight request to complete with 204, got %d", status)
	}
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after shutdown")
	}
}

func TestConsoleSessionLifecycle(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	service := apitest.Start(t)
	service.AddAccount("Ada", "ada@example.com", "1234")
	service.Seed("clients", gin.H{"id": "c1", "name": "Ada Guest", "cpf": "123"})
	common := []string{
		"--api_base_url", service.BaseURL(),
		"--credential_store_url", "sqlite://" + filepath.Join(t.TempDir(), "credentials.db"),
	}

	stdout, stderr, err := executeCommand(t, append(common, "login", "--email", "ada@example.com", "--password", "1234")...)
	if err != nil {
		t.Fatalf("login failed: %v (%s)", err, stderr)
	}
	if !strings.Contains(stdout, "ada@example.com") || !strings.Contains(stderr, "-> /clientes") {
		t.Fatalf("unexpected login output %q / %q", stdout, stderr)
	}

	stdout, _, err = executeCommand(t, append(common, "whoami")...)
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	var state struct {
		Identity struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"identity"`
		IsAuthenticated bool `json:"is_authenticated"`
	}
	if err := json.Unmarshal([]byte(stdout), &state); err != nil {
		t.Fatalf("decode failed: %v (%s)", err, stdout)
	}
	if !state.IsAuthenticated || state.Identity.Name != "Ada" {
		t.Fatalf("unexpected state %+v", state)
	}

	stdout, _, err = executeCommand(t, append(common, "clients", "list")...)
	if err != nil {
		t.Fatalf("clients list failed: %v", err)
	}
	if !strings.Contains(stdout, `"Ada Guest"`) || !strings.Contains(stdout, `"count": 1`) {
		t.Fatalf("unexpected listing %s", stdout)
	}

	if _, _, err := executeCommand(t, append(common, "clients", "update", "--data", `{"id":"c1","name":"Ada Lovelace","cpf":"123","email":"ada@example.com"}`)...); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	stdout, _, err = executeCommand(t, append(common, "clients", "get", "c1")...)
	if err != nil || !strings.Contains(stdout, `"Ada Lovelace"`) {
		t.Fatalf("expected updated client, got %s (%v)", stdout, err)
	}

	if _, _, err := executeCommand(t, append(common, "room-types", "create", "--data", `{"name":"Suite","daily_price":350}`)...); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if records := service.Records("room-types"); len(records) != 1 || records[0]["name"] != "Suite" {
		t.Fatalf("expected created room type, got %+v", records)
	}
	if _, _, err := executeCommand(t, append(common, "room-types", "create")...); !errors.Is(err, errMissingRecordData) {
		t.Fatalf("expected missing data error, got %v", err)
	}
	if _, _, err := executeCommand(t, append(common, "room-types", "create", "--data", `{"name":`)...); !errors.Is(err, hotel.ErrInvalidRecord) {
		t.Fatalf("expected invalid record error, got %v", err)
	}

	if _, _, err := executeCommand(t, append(common, "clients", "delete", "c1")...); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(service.Records("clients")) != 0 {
		t.Fatalf("expected client deleted")
	}

	if _, _, err := executeCommand(t, append(common, "logout")...); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, _, err := executeCommand(t, append(common, "whoami")...); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected not signed in after logout, got %v", err)
	}
}

func TestLoginFailureReportsServiceMessage(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	service := apitest.Start(t)
	restoreStore := withCredentialStoreStub(credentialstore.NewMemoryStore())
	defer restoreStore()

	_, _, err := executeCommand(t, "--api_base_url", service.BaseURL(), "login", "--email", "ghost@example.com", "--password", "x")
	if err == nil || !strings.HasPrefix(err.Error(), "invalid email or password") {
		t.Fatalf("expected service message, got %v", err)
	}
}

func TestStaleCredentialIsDiscardedOnStartup(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	service := apitest.Start(t)
	store := credentialstore.NewMemoryStore()
	if err := store.Write("expired", credentialstore.DefaultOptions()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	restoreStore := withCredentialStoreStub(store)
	defer restoreStore()

	_, stderr, err := executeCommand(t, "--api_base_url", service.BaseURL(), "rooms", "list")
	if !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected not signed in, got %v", err)
	}
	if !strings.Contains(stderr, "stored session expired") {
		t.Fatalf("expected expiry notice, got %q", stderr)
	}
	if store.Read(nil) != "" {
		t.Fatalf("expected stale credential cleared")
	}
	if service.CountRequests(http.MethodGet, "rooms") != 0 {
		t.Fatalf("listing must not be attempted without an identity")
	}
}
