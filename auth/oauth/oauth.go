package oauth

import (
	"context"

	"github.com/fum-tui/fum-youtube/auth/state"
)

type Authorizer interface {
	Exchanger
	Refresher
}

// Exchanger trades an authorization code for the first credential.
type Exchanger interface {
	Exchange(ctx context.Context, authorizationCode string, redirectURI string) (*state.Credentials, error)
}

// Refresher acquires a new access token. The returned RefreshToken is empty
// when the provider did not rotate it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*state.Credentials, error)
}
