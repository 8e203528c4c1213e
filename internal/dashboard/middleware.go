package dashboard

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
	"github.com/tyemirov/hoteldesk/pkg/navigation"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequireCredential sends requests without a credential cookie back to the entry screen.
// Whether the credential is still valid is decided by the service on the first call.
func RequireCredential() gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		if credentialstore.ReadRequestCookie(contextGin.Request) == "" {
			contextGin.Redirect(http.StatusFound, navigation.EntryRoute)
			contextGin.Abort()
			return
		}
		contextGin.Next()
	}
}

// RequestID tags every request with an id, reusing a well-formed inbound one.
func RequestID() gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		requestID := strings.TrimSpace(contextGin.GetHeader(requestIDHeader))
		if _, parseErr := uuid.Parse(requestID); parseErr != nil {
			requestID = uuid.NewString()
		}
		contextGin.Set(requestIDKey, requestID)
		contextGin.Header(requestIDHeader, requestID)
		contextGin.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		startTime := time.Now()
		contextGin.Next()
		duration := time.Since(startTime)
		logger.Info("http",
			zap.String("request_id", contextGin.GetString(requestIDKey)),
			zap.String("method", contextGin.Request.Method),
			zap.String("path", contextGin.Request.URL.Path),
			zap.Int("status", contextGin.Writer.Status()),
			zap.String("ip", contextGin.ClientIP()),
			zap.Duration("elapsed", duration),
		)
	}
}

func isHTTPS(request *http.Request) bool {
	if request == nil {
		return false
	}
	if request.TLS != nil {
		return true
	}
	if strings.EqualFold(request.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	forwarded := request.Header.Get("Forwarded")
	if forwarded != "" && strings.Contains(strings.ToLower(forwarded), "proto=https") {
		return true
	}
	host, _, splitErr := net.SplitHostPort(request.Host)
	return splitErr == nil && host == "localhost"
}
