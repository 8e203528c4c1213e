package credentialstore

import (
	"net/http"
	"sync"
)

// CookieConfig controls the attributes of emitted credential cookies.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// CookieStore binds the credential to one HTTP exchange: it reads the request
// cookie and writes through Set-Cookie headers on the response.
type CookieStore struct {
	mutex         sync.Mutex
	request       *http.Request
	writer        http.ResponseWriter
	configuration CookieConfig
	overridden    bool
	current       string
	path          string
}

// NewCookieStore creates a store for a single request/response pair.
func NewCookieStore(request *http.Request, writer http.ResponseWriter, configuration CookieConfig) *CookieStore {
	if configuration.SameSite == 0 {
		configuration.SameSite = http.SameSiteLaxMode
	}
	return &CookieStore{
		request:       request,
		writer:        writer,
		configuration: configuration,
		path:          DefaultPath,
	}
}

// Read returns the credential for this exchange. Writes and clears made during
// the exchange take precedence over the inbound cookie.
func (store *CookieStore) Read(request *http.Request) string {
	if request != nil && request != store.request {
		return ReadRequestCookie(request)
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.overridden {
		return store.current
	}
	return ReadRequestCookie(store.request)
}

// Write emits a Set-Cookie header carrying the credential.
func (store *CookieStore) Write(token string, options Options) error {
	if store.writer == nil {
		return ErrMissingResponseWriter
	}
	options = options.normalized()
	http.SetCookie(store.writer, &http.Cookie{
		Name:     TokenName,
		Value:    token,
		Path:     options.Path,
		Domain:   store.configuration.Domain,
		MaxAge:   int(options.MaxAge.Seconds()),
		Secure:   store.configuration.Secure,
		HttpOnly: true,
		SameSite: store.configuration.SameSite,
	})
	store.mutex.Lock()
	store.overridden = true
	store.current = token
	store.path = options.Path
	store.mutex.Unlock()
	return nil
}

// Clear emits an expiring Set-Cookie header at the path of the last write.
func (store *CookieStore) Clear() error {
	if store.writer == nil {
		return ErrMissingResponseWriter
	}
	store.mutex.Lock()
	path := store.path
	store.mutex.Unlock()
	http.SetCookie(store.writer, &http.Cookie{
		Name:     TokenName,
		Value:    "",
		Path:     path,
		Domain:   store.configuration.Domain,
		MaxAge:   -1,
		Secure:   store.configuration.Secure,
		HttpOnly: true,
		SameSite: store.configuration.SameSite,
	})
	store.mutex.Lock()
	store.overridden = true
	store.current = ""
	store.mutex.Unlock()
	return nil
}
