package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tyemirov/hoteldesk/internal/credentialstorepg"
	"github.com/tyemirov/hoteldesk/internal/hotel"
	"github.com/tyemirov/hoteldesk/internal/metrics"
	"github.com/tyemirov/hoteldesk/pkg/apiclient"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
	"github.com/tyemirov/hoteldesk/pkg/navigation"
	"github.com/tyemirov/hoteldesk/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var errNotSignedIn = errors.New("cli.not_signed_in: run hoteldesk login first")

// openCredentialStore is replaceable in tests.
var openCredentialStore = func(ctx context.Context, storeURL string) (credentialstore.Store, error) {
	parsed, parseErr := url.Parse(storeURL)
	if parseErr == nil && strings.EqualFold(parsed.Scheme, "pgx") {
		store, openErr := credentialstorepg.Open(ctx, storeURL)
		if openErr != nil {
			return nil, openErr
		}
		return store, nil
	}
	return credentialstore.Open(ctx, storeURL)
}

// consoleRuntime wires one interactive invocation: the persisted credential,
// the request client reading it, and the session that owns it.
type consoleRuntime struct {
	logger   *zap.Logger
	store    credentialstore.Store
	client   *apiclient.Client
	session  *session.Context
	services *hotel.Services
	output   io.Writer
}

func openConsoleRuntime(command *cobra.Command) (*consoleRuntime, error) {
	cliConfig, configErr := cliConfigFrom(command)
	if configErr != nil {
		return nil, configErr
	}
	logger, loggerErr := buildCLILogger(cliConfig.Verbose)
	if loggerErr != nil {
		return nil, loggerErr
	}

	store, storeErr := openCredentialStore(command.Context(), cliConfig.CredentialStoreURL)
	if storeErr != nil {
		_ = logger.Sync()
		return nil, storeErr
	}

	errorOutput := command.ErrOrStderr()
	navigator := navigation.Func(func(route string) {
		fmt.Fprintf(errorOutput, "-> %s\n", route)
	})
	clientOptions := []apiclient.Option{
		apiclient.WithLogger(logger),
		apiclient.WithNavigator(navigator),
	}
	if cliConfig.RateLimit > 0 {
		burst := int(cliConfig.RateLimit)
		if burst < 1 {
			burst = 1
		}
		clientOptions = append(clientOptions, apiclient.WithRateLimit(rate.NewLimiter(rate.Limit(cliConfig.RateLimit), burst)))
	}
	client, clientErr := apiclient.New(apiclient.Config{
		BaseURL: cliConfig.APIBaseURL,
		Timeout: cliConfig.RequestTimeout,
	}, store, apiclient.Interactive(), clientOptions...)
	if clientErr != nil {
		closeStore(store)
		return nil, clientErr
	}

	sessionContext, sessionErr := session.New(client, store,
		session.WithLogger(logger),
		session.WithNavigator(navigator),
		session.WithMetrics(metrics.Nop{}))
	if sessionErr != nil {
		closeStore(store)
		return nil, sessionErr
	}

	runtime := &consoleRuntime{
		logger:   logger,
		store:    store,
		client:   client,
		session:  sessionContext,
		services: hotel.NewServices(client),
		output:   command.OutOrStdout(),
	}
	if bootstrapErr := sessionContext.Bootstrap(command.Context()); bootstrapErr != nil {
		logger.Debug("stored credential discarded", zap.Error(bootstrapErr))
		if errors.Is(bootstrapErr, apiclient.ErrAuthorizationFailure) {
			fmt.Fprintln(errorOutput, "stored session expired; sign in again")
		}
	}
	return runtime, nil
}

func (runtime *consoleRuntime) Close() {
	runtime.session.Teardown()
	closeStore(runtime.store)
	_ = runtime.logger.Sync()
}

func (runtime *consoleRuntime) requireIdentity() error {
	if !runtime.session.IsAuthenticated() {
		return errNotSignedIn
	}
	return nil
}

func (runtime *consoleRuntime) print(value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("cli.encode_output: %w", err)
	}
	_, err = fmt.Fprintln(runtime.output, string(encoded))
	return err
}

func closeStore(store credentialstore.Store) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}

func buildCLILogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
