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
	"io"
	"os"
	"time"

	"github.com/gravitational/trace"
	"github.com/olekukonko/tablewriter"

	"github.com/fum-tui/fum-youtube/auth/state"
	"github.com/fum-tui/fum-youtube/youtube"
)

// StatusCmd shows the stored credentials without revealing them
type StatusCmd struct {
	StorageConfig
	SessionConfig
}

// Run prints the credential status
func (c *StatusCmd) Run(cli *CLI) error {
	fileState, err := c.newState()
	if err != nil {
		return trace.Wrap(err)
	}
	creds, err := fileState.GetCredentials(context.Background())
	if err != nil && !trace.IsNotFound(err) {
		return trace.Wrap(err)
	}
	printStatus(os.Stdout, fileState.Dir(), creds, time.Now(), c.RefreshMargin)
	return nil
}

func printStatus(w io.Writer, dir string, creds *state.Credentials, now time.Time, margin time.Duration) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Storage", dir})

	if creds == nil {
		table.Append([]string{"Credentials", "missing, run authorize"})
		table.Render()
		return
	}

	table.Append([]string{"Credentials", "stored"})
	table.Append([]string{"Expires at", creds.ExpiresAt.Local().Format(time.RFC3339)})
	if remaining := creds.ExpiresAt.Sub(now); remaining > 0 {
		table.Append([]string{"Expires in", remaining.Truncate(time.Second).String()})
	} else {
		table.Append([]string{"Expires in", "expired"})
	}
	needsRefresh := "no"
	if youtube.NeedsRefresh(creds, now, margin) {
		needsRefresh = "yes"
	}
	table.Append([]string{"Refresh on next call", needsRefresh})
	table.Render()
}
