package youtube

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/fum-tui/fum-youtube/auth/oauth"
	"github.com/fum-tui/fum-youtube/auth/state"
	"github.com/fum-tui/fum-youtube/lib/logger"
)

// NeedsRefresh reports whether creds expire within margin of now.
func NeedsRefresh(creds *state.Credentials, now time.Time, margin time.Duration) bool {
	return creds.ExpiresAt.Sub(now) <= margin
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Config
	// State loads the stored credential and persists refreshed ones.
	State state.State
	// Refresher defaults to an Authorizer for Config.
	Refresher oauth.Refresher
	Clock     clockwork.Clock
}

// CheckAndSetDefaults validates the config and fills in the defaults.
func (c *SessionConfig) CheckAndSetDefaults() error {
	if err := c.Config.CheckAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if c.State == nil {
		return trace.BadParameter("missing required value State")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Refresher == nil {
		c.Refresher = NewAuthorizer(c.Config, c.Clock)
	}
	return nil
}

// Session holds the live credential and the API client authorized with it.
// It is not safe for concurrent use: an Actor owns it exclusively.
type Session struct {
	conf   SessionConfig
	client *resty.Client
	creds  state.Credentials
}

// NewSession loads the stored credential. It fails with ConfigMissingError
// when the authorization flow has not been run yet.
func NewSession(ctx context.Context, conf SessionConfig) (*Session, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	creds, err := conf.State.GetCredentials(ctx)
	if trace.IsNotFound(err) {
		return nil, &ConfigMissingError{Err: err}
	}
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if err := creds.Check(); err != nil {
		return nil, &ConfigMissingError{Err: err}
	}

	client := makeAPIClient(conf.HTTPTimeout).SetAuthToken(creds.AccessToken)
	return &Session{conf: conf, client: client, creds: *creds}, nil
}

// Credentials returns a copy of the live credential.
func (s *Session) Credentials() state.Credentials {
	return s.creds
}

// EnsureFresh renews the access token when it is expired or about to expire.
func (s *Session) EnsureFresh(ctx context.Context) error {
	now := s.conf.Clock.Now()
	if !NeedsRefresh(&s.creds, now, s.conf.RefreshMargin) {
		return nil
	}
	log := logger.Get(ctx).WithField("expires_at", s.creds.ExpiresAt)
	log.Debug("Refreshing access token")

	refreshed, err := s.conf.Refresher.Refresh(ctx, s.creds.RefreshToken)
	if err != nil {
		return &RefreshError{Err: err}
	}

	s.creds.AccessToken = refreshed.AccessToken
	s.creds.ExpiresAt = refreshed.ExpiresAt
	if refreshed.RefreshToken != "" {
		s.creds.RefreshToken = refreshed.RefreshToken
	}
	s.client.SetAuthToken(s.creds.AccessToken)

	saved := s.creds
	if err := s.conf.State.PutCredentials(ctx, &saved); err != nil {
		// The live credential is valid; it is only lost on restart.
		log.WithError(err).Error("Failed to persist refreshed credentials")
	}
	log.WithField("new_expires_at", s.creds.ExpiresAt).Info("Access token refreshed")
	return nil
}

// RateVideo rates the video identified by videoURL. Any HTTP status from the
// rate endpoint is returned as a RateResponse; only transport failures are errors.
func (s *Session) RateVideo(ctx context.Context, videoURL string, rating Rating) (*RateResponse, error) {
	if err := rating.Check(); err != nil {
		return nil, trace.Wrap(err)
	}
	videoID, ok := ExtractVideoID(videoURL)
	if !ok {
		return nil, trace.BadParameter("no video id found in %q", videoURL)
	}

	if err := s.EnsureFresh(ctx); err != nil {
		return nil, trace.Wrap(err)
	}

	ctx, log := logger.WithFields(ctx, logrus.Fields{"video_id": videoID, "rating": rating})
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(rateRequest{ID: videoID, Rating: rating}).
		Post(s.conf.RateURL)
	if err != nil {
		return nil, &RateCallError{VideoID: videoID, Err: err}
	}

	result := &RateResponse{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       resp.Body(),
	}
	if result.IsSuccess() {
		log.Debug("Video rated")
	} else {
		log.WithField("status", result.Status).Warn("Rate endpoint rejected the request")
	}
	return result, nil
}
