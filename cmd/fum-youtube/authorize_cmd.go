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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravitational/trace"
	"github.com/manifoldco/promptui"
	log "github.com/sirupsen/logrus"

	"github.com/fum-tui/fum-youtube/youtube"
)

// AuthorizeCmd runs the interactive consent flow
type AuthorizeCmd struct {
	GoogleConfig
	StorageConfig

	// Force overwrites stored credentials without asking
	Force bool `help:"Overwrite stored credentials without asking" short:"f"`

	// Timeout is how long to wait for the user to grant consent
	Timeout time.Duration `help:"How long to wait for consent" default:"5m" name:"authorize-timeout"`
}

// Run runs the authorization flow
func (c *AuthorizeCmd) Run(cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fileState, err := c.newState()
	if err != nil {
		return trace.Wrap(err)
	}

	if !c.Force {
		if _, err := fileState.GetCredentials(ctx); err == nil {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Credentials are already stored in %s. Overwrite", fileState.Dir()),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				if err == promptui.ErrAbort {
					fmt.Println("Keeping the stored credentials.")
					return nil
				}
				return trace.Wrap(err)
			}
		}
	}

	return trace.Wrap(c.authorize(ctx))
}

func (c *AuthorizeCmd) authorize(ctx context.Context) error {
	conf, err := c.youtubeConfig(0)
	if err != nil {
		return trace.Wrap(err)
	}
	fileState, err := c.newState()
	if err != nil {
		return trace.Wrap(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	creds, err := youtube.Authorize(ctx, youtube.AuthorizeConfig{
		Config: conf,
		State:  fileState,
	})
	if err != nil {
		return trace.Wrap(err)
	}

	log.WithField("dir", fileState.Dir()).Info("Credentials stored")
	fmt.Printf("Authorized. The access token is valid until %s.\n", creds.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}
