package youtube

import (
	"errors"
	"fmt"

	"github.com/gravitational/trace"
)

// ConfigMissingError means no usable credential is stored and the
// authorization flow has to be run first.
type ConfigMissingError struct {
	Err error
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("no stored credentials, authorize first: %v", e.Err)
}

func (e *ConfigMissingError) Unwrap() error { return e.Err }

// ProviderError is an error reported by the provider through the authorization callback.
type ProviderError struct {
	Reason string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("authorization rejected by provider: %s", e.Reason)
}

// ExchangeError is a failed call to the token endpoint.
type ExchangeError struct {
	GrantType string
	Err       error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s token exchange failed: %v", e.GrantType, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// RefreshError is a failed access token renewal.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("failed to refresh access token: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// RateCallError is a failed call to the rate endpoint.
type RateCallError struct {
	VideoID string
	Err     error
}

func (e *RateCallError) Error() string {
	return fmt.Sprintf("failed to rate video %s: %v", e.VideoID, e.Err)
}

func (e *RateCallError) Unwrap() error { return e.Err }

// ActorUnavailableError is returned by Submit once the actor no longer accepts or serves requests.
type ActorUnavailableError struct {
	Reason string
}

func (e *ActorUnavailableError) Error() string {
	return fmt.Sprintf("rating actor is unavailable: %s", e.Reason)
}

// IsConfigMissing reports whether err is a ConfigMissingError.
func IsConfigMissing(err error) bool {
	var target *ConfigMissingError
	return as(err, &target)
}

// IsProviderError reports whether err is a ProviderError.
func IsProviderError(err error) bool {
	var target *ProviderError
	return as(err, &target)
}

// IsExchangeError reports whether err is an ExchangeError.
func IsExchangeError(err error) bool {
	var target *ExchangeError
	return as(err, &target)
}

// IsRefreshError reports whether err is a RefreshError.
func IsRefreshError(err error) bool {
	var target *RefreshError
	return as(err, &target)
}

// IsRateCallError reports whether err is a RateCallError.
func IsRateCallError(err error) bool {
	var target *RateCallError
	return as(err, &target)
}

// IsActorUnavailable reports whether err is an ActorUnavailableError.
func IsActorUnavailable(err error) bool {
	var target *ActorUnavailableError
	return as(err, &target)
}

func as(err error, target interface{}) bool {
	if err == nil {
		return false
	}
	return errors.As(err, target) || errors.As(trace.Unwrap(err), target)
}
