package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/hoteldesk/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouterOptions configures the middleware stack around the dashboard routes.
type RouterOptions struct {
	Logger  *zap.Logger
	Metrics metrics.Recorder
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler     http.Handler
	Limiter            *rate.Limiter
	EnableCORS         bool
	CORSAllowedOrigins []string
}

// NewRouter builds the dashboard engine.
func NewRouter(configuration Config, options RouterOptions) (*gin.Engine, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(AccessLog(logger))

	if options.EnableCORS {
		corsMiddleware, corsErr := ConfigureCORS(logger, options.CORSAllowedOrigins)
		if corsErr != nil {
			return nil, corsErr
		}
		router.Use(corsMiddleware)
	}

	if options.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(options.MetricsHandler))
	}

	MountRoutes(router, configuration, logger, options.Metrics, options.Limiter)
	return router, nil
}
