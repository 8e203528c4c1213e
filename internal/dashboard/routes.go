// Package dashboard serves the admin console over HTTP. Each request gets its
// own credential store bound to the request cookies and its own API client.
package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/hoteldesk/internal/hotel"
	"github.com/tyemirov/hoteldesk/internal/metrics"
	"github.com/tyemirov/hoteldesk/pkg/apiclient"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
	"github.com/tyemirov/hoteldesk/pkg/navigation"
	"github.com/tyemirov/hoteldesk/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// newRecordSegment is the screen segment that opens an empty create form.
const newRecordSegment = "adicionar"

type routeHandlers struct {
	configuration Config
	logger        *zap.Logger
	metrics       metrics.Recorder
	limiter       *rate.Limiter
}

type exchange struct {
	store   *credentialstore.CookieStore
	client  *apiclient.Client
	session *session.Context
	// redirect is the last route the session navigated to.
	redirect string
}

// MountRoutes registers the entry screen, sign-in, sign-up, sign-out, and the
// credential-protected resource screens.
func MountRoutes(router gin.IRouter, configuration Config, logger *zap.Logger, recorder metrics.Recorder, limiter *rate.Limiter) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	handlers := &routeHandlers{
		configuration: configuration,
		logger:        logger,
		metrics:       recorder,
		limiter:       limiter,
	}

	router.GET(navigation.EntryRoute, handlers.handleEntry)
	router.POST("/login", handlers.handleSignIn)
	router.POST("/register", handlers.handleSignUp)
	router.POST("/logout", handlers.handleSignOut)

	protected := router.Group("")
	protected.Use(RequireCredential())
	protected.GET("/me", handlers.handleMe)
	for _, entry := range hotel.Catalog() {
		entry := entry
		protected.GET(entry.Screen, handlers.handleList(entry))
		protected.POST(entry.Screen, handlers.handleCreate(entry))
		protected.PATCH(entry.Screen, handlers.handleUpdate(entry))
		protected.GET(entry.Screen+"/:id", handlers.handleRecord(entry))
		protected.DELETE(entry.Screen+"/:id", handlers.handleDelete(entry))
	}
}

func (handlers *routeHandlers) openExchange(contextGin *gin.Context) (*exchange, error) {
	current := &exchange{}
	current.store = credentialstore.NewCookieStore(contextGin.Request, contextGin.Writer, handlers.configuration.cookieConfig(contextGin.Request))

	clientOptions := []apiclient.Option{
		apiclient.WithLogger(handlers.logger),
		apiclient.WithMetrics(handlers.metrics),
	}
	if handlers.limiter != nil {
		clientOptions = append(clientOptions, apiclient.WithRateLimit(handlers.limiter))
	}
	client, clientErr := apiclient.New(apiclient.Config{
		BaseURL: handlers.configuration.APIBaseURL,
		Timeout: handlers.configuration.RequestTimeout,
	}, current.store, apiclient.ServerSide(contextGin.Request), clientOptions...)
	if clientErr != nil {
		return nil, clientErr
	}
	current.client = client

	sessionContext, sessionErr := session.New(client, current.store,
		session.WithLogger(handlers.logger),
		session.WithMetrics(handlers.metrics),
		session.WithNavigator(navigation.Func(func(route string) { current.redirect = route })))
	if sessionErr != nil {
		return nil, sessionErr
	}
	current.session = sessionContext
	return current, nil
}

func (handlers *routeHandlers) handleEntry(contextGin *gin.Context) {
	if credentialstore.ReadRequestCookie(contextGin.Request) != "" {
		contextGin.Redirect(http.StatusFound, navigation.PrimaryListingRoute)
		return
	}
	screens := make([]gin.H, 0, len(hotel.Catalog()))
	for _, entry := range hotel.Catalog() {
		screens = append(screens, gin.H{"path": entry.Screen, "summary": entry.Summary})
	}
	contextGin.JSON(http.StatusOK, gin.H{
		"screen":  "sign_in",
		"sign_in": "/login",
		"sign_up": "/register",
		"screens": screens,
	})
}

func (handlers *routeHandlers) handleSignIn(contextGin *gin.Context) {
	var inbound session.SignInCredentials
	if err := contextGin.ShouldBindJSON(&inbound); err != nil || strings.TrimSpace(inbound.Email) == "" {
		contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	current, openErr := handlers.openExchange(contextGin)
	if openErr != nil {
		handlers.respondWithError(contextGin, openErr)
		return
	}
	handlers.respondWithOutcome(contextGin, current, current.session.SignIn(contextGin.Request.Context(), inbound))
}

func (handlers *routeHandlers) handleSignUp(contextGin *gin.Context) {
	var inbound session.SignUpCredentials
	if err := contextGin.ShouldBindJSON(&inbound); err != nil || strings.TrimSpace(inbound.Email) == "" {
		contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	current, openErr := handlers.openExchange(contextGin)
	if openErr != nil {
		handlers.respondWithError(contextGin, openErr)
		return
	}
	handlers.respondWithOutcome(contextGin, current, current.session.SignUp(contextGin.Request.Context(), inbound))
}

// respondWithOutcome reports a sign-in or sign-up. Rejections by the service
// keep their status and message; transport failures surface as 502.
func (handlers *routeHandlers) respondWithOutcome(contextGin *gin.Context, current *exchange, outcome session.Outcome) {
	if !outcome.Succeeded() {
		var responseError *apiclient.ResponseError
		switch {
		case errors.As(outcome.Err, &responseError):
			contextGin.AbortWithStatusJSON(responseError.StatusCode(), gin.H{"error": outcome.Message})
		case errors.Is(outcome.Err, apiclient.ErrAuthorizationFailure):
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": outcome.Message})
		default:
			handlers.respondWithError(contextGin, outcome.Err)
		}
		return
	}
	contextGin.JSON(http.StatusOK, gin.H{
		"identity": outcome.Identity,
		"message":  outcome.Message,
		"redirect": current.redirect,
	})
}

func (handlers *routeHandlers) handleSignOut(contextGin *gin.Context) {
	current, openErr := handlers.openExchange(contextGin)
	if openErr != nil {
		handlers.respondWithError(contextGin, openErr)
		return
	}
	current.session.SignOut()
	contextGin.Redirect(http.StatusSeeOther, current.redirect)
}

func (handlers *routeHandlers) handleMe(contextGin *gin.Context) {
	current, openErr := handlers.openExchange(contextGin)
	if openErr != nil {
		handlers.respondWithError(contextGin, openErr)
		return
	}
	if bootstrapErr := current.session.Bootstrap(contextGin.Request.Context()); bootstrapErr != nil {
		handlers.respondWithError(contextGin, bootstrapErr)
		return
	}
	contextGin.JSON(http.StatusOK, gin.H{"me": current.session.Identity()})
}

func (handlers *routeHandlers) handleList(entry hotel.Entry) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		current, openErr := handlers.openExchange(contextGin)
		if openErr != nil {
			handlers.respondWithError(contextGin, openErr)
			return
		}
		browser := entry.Browser(hotel.NewServices(current.client))
		items, count, listErr := browser.ListRecords(contextGin.Request.Context())
		if listErr != nil {
			handlers.respondWithError(contextGin, listErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{browser.ListKey(): items, "count": count})
	}
}

func (handlers *routeHandlers) handleRecord(entry hotel.Entry) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		current, openErr := handlers.openExchange(contextGin)
		if openErr != nil {
			handlers.respondWithError(contextGin, openErr)
			return
		}
		identifier := contextGin.Param("id")
		if identifier == newRecordSegment {
			identifier = ""
		}
		browser := entry.Browser(hotel.NewServices(current.client))
		record, getErr := browser.GetRecord(contextGin.Request.Context(), identifier)
		if getErr != nil {
			handlers.respondWithError(contextGin, getErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{browser.ItemKey(): record})
	}
}

func (handlers *routeHandlers) handleCreate(entry hotel.Entry) gin.HandlerFunc {
	return handlers.handleWrite(entry, http.StatusCreated, hotel.Browser.CreateRecord)
}

func (handlers *routeHandlers) handleUpdate(entry hotel.Entry) gin.HandlerFunc {
	return handlers.handleWrite(entry, http.StatusOK, hotel.Browser.UpdateRecord)
}

type recordWrite func(browser hotel.Browser, ctx context.Context, body []byte) error

// handleWrite forwards the request body to the service as a create or update.
// Bodies that do not match the resource's input shape never leave the dashboard.
func (handlers *routeHandlers) handleWrite(entry hotel.Entry, successStatus int, write recordWrite) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		body, readErr := io.ReadAll(contextGin.Request.Body)
		if readErr != nil {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}
		current, openErr := handlers.openExchange(contextGin)
		if openErr != nil {
			handlers.respondWithError(contextGin, openErr)
			return
		}
		browser := entry.Browser(hotel.NewServices(current.client))
		if writeErr := write(browser, contextGin.Request.Context(), body); writeErr != nil {
			if errors.Is(writeErr, hotel.ErrInvalidRecord) {
				contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
				return
			}
			handlers.respondWithError(contextGin, writeErr)
			return
		}
		contextGin.JSON(successStatus, gin.H{"redirect": entry.Screen})
	}
}

func (handlers *routeHandlers) handleDelete(entry hotel.Entry) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		current, openErr := handlers.openExchange(contextGin)
		if openErr != nil {
			handlers.respondWithError(contextGin, openErr)
			return
		}
		browser := entry.Browser(hotel.NewServices(current.client))
		if deleteErr := browser.Delete(contextGin.Request.Context(), contextGin.Param("id")); deleteErr != nil {
			handlers.respondWithError(contextGin, deleteErr)
			return
		}
		contextGin.Status(http.StatusNoContent)
	}
}

// respondWithError maps API failures onto the dashboard response. A rejected
// credential has already been cleared by the client; the browser is sent to
// the entry screen.
func (handlers *routeHandlers) respondWithError(contextGin *gin.Context, err error) {
	if errors.Is(err, apiclient.ErrAuthorizationFailure) {
		contextGin.Redirect(http.StatusFound, navigation.EntryRoute)
		contextGin.Abort()
		return
	}
	var responseError *apiclient.ResponseError
	if errors.As(err, &responseError) {
		status := responseError.StatusCode()
		contextGin.AbortWithStatusJSON(status, gin.H{"error": apiclient.MessageOf(err, http.StatusText(status))})
		return
	}
	if errors.Is(err, apiclient.ErrInvalidBaseURL) {
		handlers.logger.Error("dashboard misconfigured",
			zap.String("code", "dashboard.invalid_api_base_url"),
			zap.Error(err))
		contextGin.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	handlers.logger.Warn("api call failed",
		zap.String("code", "dashboard.api_unavailable"),
		zap.String("request_id", contextGin.GetString(requestIDKey)),
		zap.Error(err))
	contextGin.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "service_unavailable"})
}
