// Package credentialstore persists the bearer credential used by the hotel API
// client. A store is readable from an interactive process through its own
// medium, or from a server-side request through that request's cookies.
package credentialstore

import (
	"net/http"
	"strings"
	"time"
)

const (
	// TokenName is the fixed key under which the credential is stored.
	TokenName = "hotel-app.token"
	// DefaultMaxAge is the sliding lifetime applied when Options.MaxAge is zero.
	DefaultMaxAge = 30 * 24 * time.Hour
	// DefaultPath is the cookie path applied when Options.Path is empty.
	DefaultPath = "/"
)

// Options configures a credential write.
type Options struct {
	MaxAge time.Duration
	Path   string
}

// DefaultOptions returns the 30-day, root-path write options.
func DefaultOptions() Options {
	return Options{MaxAge: DefaultMaxAge, Path: DefaultPath}
}

func (options Options) normalized() Options {
	if options.MaxAge <= 0 {
		options.MaxAge = DefaultMaxAge
	}
	if strings.TrimSpace(options.Path) == "" {
		options.Path = DefaultPath
	}
	return options
}

// Reader reads the credential. A nil request reads the store's own medium.
// Absence is reported as an empty string.
type Reader interface {
	Read(request *http.Request) string
}

// Clearer removes the credential. Clearing an absent credential is not an error.
type Clearer interface {
	Clear() error
}

// Store reads, writes, and clears the credential.
type Store interface {
	Reader
	Clearer
	Write(token string, options Options) error
}

// ReadRequestCookie returns the credential carried by a request's cookies.
func ReadRequestCookie(request *http.Request) string {
	if request == nil {
		return ""
	}
	cookie, cookieErr := request.Cookie(TokenName)
	if cookieErr != nil || cookie == nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
