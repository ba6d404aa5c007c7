package youtube

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"

	"github.com/fum-tui/fum-youtube/auth/oauth"
	"github.com/fum-tui/fum-youtube/auth/state"
)

// Authorizer implements oauth.Authorizer for the Google token endpoint.
type Authorizer struct {
	client *resty.Client
	clock  clockwork.Clock

	tokenURL     string
	clientID     string
	clientSecret string
}

// NewAuthorizer returns a new Authorizer. conf must have passed CheckAndSetDefaults.
func NewAuthorizer(conf Config, clock clockwork.Clock) *Authorizer {
	return newAuthorizer(makeAPIClient(conf.HTTPTimeout), clock, conf)
}

func newAuthorizer(client *resty.Client, clock clockwork.Clock, conf Config) *Authorizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Authorizer{
		client:       client,
		clock:        clock,
		tokenURL:     conf.TokenURL,
		clientID:     conf.ClientID,
		clientSecret: conf.ClientSecret,
	}
}

// Exchange implements oauth.Exchanger
func (a *Authorizer) Exchange(ctx context.Context, authorizationCode string, redirectURI string) (*state.Credentials, error) {
	creds, err := a.requestToken(ctx, tokenRequest{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Code:         authorizationCode,
		GrantType:    grantTypeAuthorizationCode,
		RedirectURI:  redirectURI,
	})
	if err != nil {
		return nil, &ExchangeError{GrantType: grantTypeAuthorizationCode, Err: err}
	}
	if creds.RefreshToken == "" {
		return nil, &ExchangeError{
			GrantType: grantTypeAuthorizationCode,
			Err:       trace.BadParameter("provider did not issue a refresh token"),
		}
	}
	return creds, nil
}

// Refresh implements oauth.Refresher. The returned RefreshToken is empty when
// the provider kept the old one.
func (a *Authorizer) Refresh(ctx context.Context, refreshToken string) (*state.Credentials, error) {
	creds, err := a.requestToken(ctx, tokenRequest{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		RefreshToken: refreshToken,
		GrantType:    grantTypeRefreshToken,
	})
	if err != nil {
		return nil, &ExchangeError{GrantType: grantTypeRefreshToken, Err: err}
	}
	return creds, nil
}

func (a *Authorizer) requestToken(ctx context.Context, req tokenRequest) (*state.Credentials, error) {
	var result tokenResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(a.tokenURL)
	if err != nil {
		return nil, trace.ConnectionProblem(err, "failed to reach token endpoint")
	}
	if resp.IsError() {
		return nil, trace.Errorf("token endpoint returned %s: %s", resp.Status(), providerErrorMessage(resp.Body()))
	}
	if result.AccessToken == "" {
		return nil, trace.BadParameter("token endpoint response has no access_token")
	}
	if result.ExpiresIn <= 0 {
		return nil, trace.BadParameter("token endpoint response has no expires_in")
	}

	return &state.Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    a.clock.Now().UTC().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

// providerErrorMessage picks the readable part of a Google OAuth error body.
func providerErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	parsed := gjson.ParseBytes(body)
	var code, description string
	if errField := parsed.Get("error"); errField.IsObject() {
		// API style: {"error": {"status": ..., "message": ...}}
		code = errField.Get("status").String()
		description = errField.Get("message").String()
	} else {
		code = errField.String()
		description = parsed.Get("error_description").String()
	}
	switch {
	case code != "" && description != "":
		return code + ": " + description
	case code != "":
		return code
	case description != "":
		return description
	}
	return strings.TrimSpace(string(body))
}

var _ oauth.Authorizer = &Authorizer{}
