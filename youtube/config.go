package youtube

import (
	"net/url"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"golang.org/x/oauth2"
)

const (
	// DefaultAuthURL is Google's consent page.
	DefaultAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	// DefaultTokenURL is Google's token endpoint.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	// DefaultRateURL is the YouTube Data API videos.rate endpoint.
	DefaultRateURL = "https://www.googleapis.com/youtube/v3/videos/rate"
	// DefaultScope grants rating on behalf of the user.
	DefaultScope = "https://www.googleapis.com/auth/youtube.force-ssl"
	// DefaultListenAddr is the loopback address of the authorization callback listener.
	DefaultListenAddr = "127.0.0.1:5000"
	// DefaultRedirectURL must be registered with the OAuth client.
	DefaultRedirectURL = "http://localhost:5000/callback"
	// DefaultHTTPTimeout bounds every token exchange and rate call.
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultRefreshMargin is how long before expiry an access token is renewed.
	DefaultRefreshMargin = 60 * time.Second
	// DefaultQueueSize is the number of rating requests which may wait for the actor.
	DefaultQueueSize = 10
)

// Config is the provider configuration shared by every component.
type Config struct {
	ClientID     string
	ClientSecret string

	AuthURL     string
	TokenURL    string
	RateURL     string
	Scope       string
	RedirectURL string
	ListenAddr  string

	HTTPTimeout   time.Duration
	RefreshMargin time.Duration
}

// CheckAndSetDefaults validates the config and fills in the defaults.
func (c *Config) CheckAndSetDefaults() error {
	if c.ClientID == "" {
		return trace.BadParameter("missing required value ClientID")
	}
	if c.ClientSecret == "" {
		return trace.BadParameter("missing required value ClientSecret")
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.RateURL == "" {
		c.RateURL = DefaultRateURL
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.RedirectURL == "" {
		c.RedirectURL = DefaultRedirectURL
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.RefreshMargin == 0 {
		c.RefreshMargin = DefaultRefreshMargin
	}

	if c.HTTPTimeout < 0 {
		return trace.BadParameter("HTTPTimeout must not be negative")
	}
	if c.RefreshMargin < 0 {
		return trace.BadParameter("RefreshMargin must not be negative")
	}
	for name, raw := range map[string]string{
		"AuthURL":     c.AuthURL,
		"TokenURL":    c.TokenURL,
		"RateURL":     c.RateURL,
		"RedirectURL": c.RedirectURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return trace.BadParameter("invalid %s %q: %v", name, raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return trace.BadParameter("%s %q must be an http(s) URL", name, raw)
		}
	}
	return nil
}

func (c Config) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
		RedirectURL: c.RedirectURL,
		Scopes:      strings.Fields(c.Scope),
	}
}

// AuthCodeURL returns the consent page URL. access_type=offline is what makes
// the provider issue a refresh token.
func (c Config) AuthCodeURL(state string) string {
	return c.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}
