/*
Copyright 2021 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package main

import (
	"time"

	"github.com/alecthomas/kong"
	"github.com/gravitational/trace"

	"github.com/fum-tui/fum-youtube/auth/state"
	"github.com/fum-tui/fum-youtube/lib/logger"
	"github.com/fum-tui/fum-youtube/youtube"
)

// GoogleConfig is the OAuth client and endpoint configuration
type GoogleConfig struct {
	// ClientID is the OAuth client id of the registered desktop application
	ClientID string `help:"Google OAuth client id" required:"true" name:"google-client-id" env:"FUM_YOUTUBE_CLIENT_ID"`

	// ClientSecret is the OAuth client secret
	ClientSecret string `help:"Google OAuth client secret" required:"true" name:"google-client-secret" env:"FUM_YOUTUBE_CLIENT_SECRET"`

	AuthURL     string `help:"Consent page URL" default:"${google_auth_url}" name:"google-auth-url"`
	TokenURL    string `help:"Token endpoint URL" default:"${google_token_url}" name:"google-token-url"`
	RateURL     string `help:"Video rate endpoint URL" default:"${google_rate_url}" name:"google-rate-url"`
	Scope       string `help:"Requested OAuth scope" default:"${google_scope}" name:"google-scope"`
	RedirectURL string `help:"Redirect URI registered with the OAuth client" default:"${google_redirect_url}" name:"google-redirect-url"`

	// CallbackListen is the loopback address the redirect lands on
	CallbackListen string `help:"Authorization callback listen address" default:"${callback_listen}" name:"callback-listen" env:"FUM_YOUTUBE_CALLBACK_LISTEN"`

	// HTTPTimeout bounds every call to Google
	HTTPTimeout time.Duration `help:"Timeout of each HTTP call to Google" default:"30s" name:"http-timeout" env:"FUM_YOUTUBE_HTTP_TIMEOUT"`
}

// StorageConfig represents storage config
type StorageConfig struct {
	// StorageDir is the directory holding the credential record
	StorageDir string `help:"Credential storage directory" default:"${storage_dir}" name:"storage-dir" env:"FUM_YOUTUBE_STORAGE_DIR"`
}

// SessionConfig tunes the long running session
type SessionConfig struct {
	// RefreshMargin is how long before expiry the access token is renewed
	RefreshMargin time.Duration `help:"Renew the access token this long before it expires" default:"60s" name:"session-refresh-margin"`

	// QueueSize is the number of rating requests which may wait for the worker
	QueueSize int `help:"Pending rating request queue size" default:"10" name:"session-queue-size"`
}

// CLI represents command structure
type CLI struct {
	// Config is the path to configuration file
	Config kong.ConfigFlag `help:"Path to TOML configuration file" optional:"true" type:"existingfile" env:"FUM_YOUTUBE_CONFIG"`

	// Debug is a debug logging mode flag
	Debug bool `help:"Debug logging" short:"d"`

	// LogOutput is where the log goes
	LogOutput string `help:"Log output: stderr, stdout or a file path" default:"stderr" name:"log-output" env:"FUM_YOUTUBE_LOG_OUTPUT"`

	// Version is the version print command
	Version VersionCmd `cmd:"true" help:"Print version"`

	// Authorize runs the interactive consent flow
	Authorize AuthorizeCmd `cmd:"true" help:"Authorize against Google and store the credentials"`

	// Rate rates videos
	Rate RateCmd `cmd:"true" help:"Rate one or more videos"`

	// Status shows the stored credentials
	Status StatusCmd `cmd:"true" help:"Show the state of the stored credentials"`
}

// Vars returns the kong variables interpolated into the flag defaults.
func Vars() kong.Vars {
	storageDir, err := state.DefaultDir()
	if err != nil {
		storageDir = ".fum"
	}
	return kong.Vars{
		"google_auth_url":     youtube.DefaultAuthURL,
		"google_token_url":    youtube.DefaultTokenURL,
		"google_rate_url":     youtube.DefaultRateURL,
		"google_scope":        youtube.DefaultScope,
		"google_redirect_url": youtube.DefaultRedirectURL,
		"callback_listen":     youtube.DefaultListenAddr,
		"storage_dir":         storageDir,
	}
}

func (c *CLI) setupLogger() error {
	conf := logger.Config{Output: c.LogOutput, Severity: "info"}
	if c.Debug {
		conf.Severity = "debug"
	}
	return trace.Wrap(logger.Setup(conf))
}

// youtubeConfig returns a validated provider configuration.
func (c GoogleConfig) youtubeConfig(refreshMargin time.Duration) (youtube.Config, error) {
	conf := youtube.Config{
		ClientID:      c.ClientID,
		ClientSecret:  c.ClientSecret,
		AuthURL:       c.AuthURL,
		TokenURL:      c.TokenURL,
		RateURL:       c.RateURL,
		Scope:         c.Scope,
		RedirectURL:   c.RedirectURL,
		ListenAddr:    c.CallbackListen,
		HTTPTimeout:   c.HTTPTimeout,
		RefreshMargin: refreshMargin,
	}
	if err := conf.CheckAndSetDefaults(); err != nil {
		return youtube.Config{}, trace.Wrap(err)
	}
	return conf, nil
}

func (c StorageConfig) newState() (*state.FileState, error) {
	return state.NewFileState(c.StorageDir)
}
