package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyemirov/hoteldesk/internal/dashboard"
	"github.com/tyemirov/hoteldesk/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var serveHTTP = func(server *http.Server) error {
	return server.ListenAndServe()
}

func runServe(command *cobra.Command, arguments []string) error {
	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	cliConfig, configErr := cliConfigFrom(command)
	if configErr != nil {
		return configErr
	}
	serveConfig, serveErr := LoadServeConfig(cliConfig)
	if serveErr != nil {
		return serveErr
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, metricsErr := metrics.NewPrometheusMetrics(registry)
	if metricsErr != nil {
		return metricsErr
	}

	var limiter *rate.Limiter
	if cliConfig.RateLimit > 0 {
		burst := int(cliConfig.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cliConfig.RateLimit), burst)
	}

	gin.SetMode(gin.ReleaseMode)
	router, routerErr := dashboard.NewRouter(serveConfig.Dashboard, dashboard.RouterOptions{
		Logger:             logger,
		Metrics:            recorder,
		MetricsHandler:     metrics.Handler(registry),
		Limiter:            limiter,
		EnableCORS:         serveConfig.EnableCORS,
		CORSAllowedOrigins: serveConfig.CORSAllowedOrigins,
	})
	if routerErr != nil {
		return routerErr
	}

	server := &http.Server{
		Addr:              serveConfig.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownGrace := viper.GetDuration("shutdown_grace")
	if shutdownGrace <= 0 {
		shutdownGrace = 10 * time.Second
	}
	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stopSignals)

	logger.Info("listening",
		zap.String("addr", serveConfig.ListenAddr),
		zap.String("api_base_url", cliConfig.APIBaseURL))
	return serveUntilStopped(server, stopSignals, shutdownGrace, logger)
}

// serveUntilStopped serves until the listener fails or a stop signal arrives.
// After a stop it returns only once in-flight requests drain or grace elapses.
func serveUntilStopped(server *http.Server, stopSignals <-chan os.Signal, shutdownGrace time.Duration, logger *zap.Logger) error {
	serveDone := make(chan struct{})
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		select {
		case <-stopSignals:
		case <-serveDone:
			return
		}
		graceCtx, graceCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer graceCancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	serveErr := serveHTTP(server)
	close(serveDone)
	<-shutdownDone
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("listen error: %w", serveErr)
	}
	return nil
}
