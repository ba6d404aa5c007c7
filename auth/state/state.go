package state

import (
	"context"
	"time"

	"github.com/gravitational/trace"
)

// Credentials represents the short-lived OAuth2 credentials.
type Credentials struct {
	// AccessToken is the Bearer token used to access the provider's API
	AccessToken string
	// RefreshToken is used to acquire a new access token.
	RefreshToken string
	// ExpiresAt marks the end of validity period for the access token.
	// The application must use the refresh token to acquire a new access token
	// before this time.
	ExpiresAt time.Time
}

// Check returns trace.NotFound naming the first absent field.
func (c *Credentials) Check() error {
	switch {
	case c == nil:
		return trace.NotFound("credentials are empty")
	case c.AccessToken == "":
		return trace.NotFound("state does not contain `AccessToken`")
	case c.RefreshToken == "":
		return trace.NotFound("state does not contain `RefreshToken`")
	case c.ExpiresAt.IsZero():
		return trace.NotFound("state does not contain `ExpiresAt`")
	}
	return nil
}

// State defines the interface for persisting the short-lived OAuth2 credentials.
type State interface {
	GetCredentials(context.Context) (*Credentials, error)
	PutCredentials(context.Context, *Credentials) error
}
