package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyemirov/hoteldesk/internal/dashboard"
	"github.com/tyemirov/hoteldesk/pkg/apiclient"
)

const (
	configCodeInvalidAPIBaseURL      = "config.invalid_api_base_url"
	configCodeInvalidRequestTimeout  = "config.invalid_request_timeout"
	configCodeInvalidRateLimit       = "config.invalid_rate_limit"
	configCodeMissingListenAddr      = "config.missing_listen_addr"
	configCodeMissingCORSOrigins     = "config.missing_cors_allowed_origins"
	configCodeUninitializedCLIConfig = "config.uninitialized_cli_config"
)

// CLIConfig holds the settings shared by every command.
type CLIConfig struct {
	APIBaseURL         string
	CredentialStoreURL string
	RequestTimeout     time.Duration
	RateLimit          float64
	Verbose            bool
}

// ServeConfig holds the dashboard server settings.
type ServeConfig struct {
	Dashboard          dashboard.Config
	ListenAddr         string
	EnableCORS         bool
	CORSAllowedOrigins []string
}

type contextKey string

const cliConfigContextKey contextKey = "cliConfig"

func configError(code, message string) error {
	return fmt.Errorf("%s: %s", code, message)
}

func prepareCLIConfig(command *cobra.Command, arguments []string) error {
	cliConfig, loadErr := LoadCLIConfig()
	if loadErr != nil {
		return loadErr
	}
	existingContext := command.Context()
	if existingContext == nil {
		existingContext = context.Background()
	}
	command.SetContext(context.WithValue(existingContext, cliConfigContextKey, cliConfig))
	return nil
}

func cliConfigFrom(command *cobra.Command) (CLIConfig, error) {
	commandContext := command.Context()
	var contextValue any
	if commandContext != nil {
		contextValue = commandContext.Value(cliConfigContextKey)
	}
	cliConfig, ok := contextValue.(CLIConfig)
	if !ok {
		return CLIConfig{}, configError(configCodeUninitializedCLIConfig, "cli configuration not prepared; PersistentPreRunE must execute before RunE")
	}
	return cliConfig, nil
}

// LoadCLIConfig reads the shared settings from flags and HOTEL_* variables.
func LoadCLIConfig() (CLIConfig, error) {
	apiBaseURL := strings.TrimSpace(viper.GetString("api_base_url"))
	if apiBaseURL == "" {
		apiBaseURL = apiclient.DefaultBaseURL
	}
	parsed, parseErr := url.Parse(apiBaseURL)
	if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		return CLIConfig{}, configError(configCodeInvalidAPIBaseURL, "api_base_url must be an absolute URL")
	}

	requestTimeout := viper.GetDuration("request_timeout")
	if requestTimeout < 0 {
		return CLIConfig{}, configError(configCodeInvalidRequestTimeout, "request_timeout must not be negative")
	}
	if requestTimeout == 0 {
		requestTimeout = apiclient.DefaultTimeout
	}

	rateLimit := viper.GetFloat64("rate_limit")
	if rateLimit < 0 {
		return CLIConfig{}, configError(configCodeInvalidRateLimit, "rate_limit must not be negative")
	}

	return CLIConfig{
		APIBaseURL:         apiBaseURL,
		CredentialStoreURL: viper.GetString("credential_store_url"),
		RequestTimeout:     requestTimeout,
		RateLimit:          rateLimit,
		Verbose:            viper.GetBool("verbose"),
	}, nil
}

// LoadServeConfig reads the dashboard settings on top of the shared ones.
func LoadServeConfig(cliConfig CLIConfig) (ServeConfig, error) {
	listenAddr := strings.TrimSpace(viper.GetString("listen_addr"))
	if listenAddr == "" {
		return ServeConfig{}, configError(configCodeMissingListenAddr, "listen_addr must be provided")
	}

	enableCORS := viper.GetBool("enable_cors")
	corsAllowedOrigins := viper.GetStringSlice("cors_allowed_origins")
	if enableCORS && len(corsAllowedOrigins) == 0 {
		return ServeConfig{}, configError(configCodeMissingCORSOrigins, "cors_allowed_origins must be provided when enable_cors is true")
	}

	sameSiteMode := http.SameSiteLaxMode
	if enableCORS {
		sameSiteMode = http.SameSiteNoneMode
	}

	return ServeConfig{
		Dashboard: dashboard.Config{
			APIBaseURL:        cliConfig.APIBaseURL,
			RequestTimeout:    cliConfig.RequestTimeout,
			CookieDomain:      viper.GetString("cookie_domain"),
			SameSiteMode:      sameSiteMode,
			AllowInsecureHTTP: viper.GetBool("dev_insecure_http"),
		},
		ListenAddr:         listenAddr,
		EnableCORS:         enableCORS,
		CORSAllowedOrigins: corsAllowedOrigins,
	}, nil
}
