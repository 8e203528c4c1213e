package dashboard

import (
	"net/http"
	"time"

	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
)

// Config configures the dashboard's upstream API and credential cookies.
type Config struct {
	APIBaseURL        string
	RequestTimeout    time.Duration
	CookieDomain      string
	SameSiteMode      http.SameSite
	AllowInsecureHTTP bool
}

func (configuration Config) cookieConfig(request *http.Request) credentialstore.CookieConfig {
	return credentialstore.CookieConfig{
		Domain:   configuration.CookieDomain,
		Secure:   !configuration.AllowInsecureHTTP || isHTTPS(request),
		SameSite: configuration.SameSiteMode,
	}
}
