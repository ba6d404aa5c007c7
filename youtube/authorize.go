package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gravitational/trace"
	"github.com/pkg/browser"

	"github.com/fum-tui/fum-youtube/auth/oauth"
	"github.com/fum-tui/fum-youtube/auth/state"
	"github.com/fum-tui/fum-youtube/lib/job"
	"github.com/fum-tui/fum-youtube/lib/logger"
)

const callbackShutdownTimeout = 5 * time.Second

// AuthorizeConfig configures a single run of the interactive authorization flow.
type AuthorizeConfig struct {
	Config
	// Exchanger trades the authorization code. Defaults to an Authorizer for Config.
	Exchanger oauth.Exchanger
	// State persists the issued credential.
	State state.State
	// OpenBrowser opens the consent page. Defaults to the system browser.
	OpenBrowser func(url string) error
	// Output receives the consent URL. Defaults to stdout.
	Output io.Writer
}

// CheckAndSetDefaults validates the config and fills in the defaults.
func (c *AuthorizeConfig) CheckAndSetDefaults() error {
	if err := c.Config.CheckAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if c.State == nil {
		return trace.BadParameter("missing required value State")
	}
	if c.Exchanger == nil {
		c.Exchanger = NewAuthorizer(c.Config, nil)
	}
	if c.OpenBrowser == nil {
		c.OpenBrowser = browser.OpenURL
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	return nil
}

// Authorize runs the one-shot consent flow: it binds the callback listener,
// sends the user to the consent page, waits for exactly one redirect,
// exchanges the code and persists the credential.
func Authorize(ctx context.Context, conf AuthorizeConfig) (*state.Credentials, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	log := logger.Get(ctx)

	oauthState := uuid.NewString()
	srv, err := newCallbackServer(conf.ListenAddr, conf.RedirectURL, oauthState)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	// The redirect must have somewhere to land before the browser is opened.
	if err := srv.Bind(); err != nil {
		return nil, trace.Wrap(err)
	}

	process := job.NewProcess(ctx)
	defer process.Close()
	serveResult := job.NewFutureResult()
	process.SpawnFunc(srv.Serve, job.WithResult(serveResult))
	defer func() {
		if err := srv.ShutdownWithTimeout(context.Background(), callbackShutdownTimeout); err != nil {
			log.WithError(err).Warn("Failed to shut down the callback server gracefully")
		}
	}()
	log.WithField("addr", srv.Addr()).Debug("Callback listener is ready")

	consentURL := conf.AuthCodeURL(oauthState)
	fmt.Fprintf(conf.Output, "Opening the consent page in your browser. If it does not open, visit:\n\n  %s\n\n", consentURL)
	if err := conf.OpenBrowser(consentURL); err != nil {
		log.WithError(err).Warn("Failed to open the browser")
	}

	var result callbackResult
	select {
	case result = <-srv.Results():
	case <-serveResult.Done():
		if err := serveResult.Err(); err != nil {
			return nil, trace.Wrap(err, "callback server failed")
		}
		return nil, trace.ConnectionProblem(nil, "callback server stopped before receiving the callback")
	case <-ctx.Done():
		return nil, trace.Wrap(ctx.Err(), "gave up waiting for the authorization callback")
	}

	if result.providerError != "" {
		return nil, &ProviderError{Reason: result.providerError}
	}

	creds, err := conf.Exchanger.Exchange(ctx, result.code, conf.RedirectURL)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if err := conf.State.PutCredentials(ctx, creds); err != nil {
		return nil, trace.Wrap(err, "failed to persist credentials")
	}

	log.WithField("expires_at", creds.ExpiresAt).Info("Authorization complete")
	return creds, nil
}
