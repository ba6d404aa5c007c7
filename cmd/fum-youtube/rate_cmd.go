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
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gravitational/trace"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fum-tui/fum-youtube/lib"
	"github.com/fum-tui/fum-youtube/lib/job"
	"github.com/fum-tui/fum-youtube/youtube"
)

const shutdownTimeout = 30 * time.Second

// RateCmd rates videos through the rating actor
type RateCmd struct {
	GoogleConfig
	StorageConfig
	SessionConfig

	// URLs are the videos to rate
	URLs []string `arg:"true" name:"url" help:"Video URLs" required:"true"`

	// Rating is like, dislike or none
	Rating string `help:"Rating to apply: like, dislike or none" default:"like" short:"r"`
}

type rateResult struct {
	url  string
	resp *youtube.RateResponse
	err  error
}

// Run rates every URL, authorizing first when no credentials are stored
func (c *RateCmd) Run(cli *CLI) error {
	rating, err := youtube.ParseRating(c.Rating)
	if err != nil {
		return trace.Wrap(err)
	}
	conf, err := c.youtubeConfig(c.RefreshMargin)
	if err != nil {
		return trace.Wrap(err)
	}
	fileState, err := c.newState()
	if err != nil {
		return trace.Wrap(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := youtube.NewSession(ctx, youtube.SessionConfig{Config: conf, State: fileState})
	if youtube.IsConfigMissing(err) {
		log.Info("No stored credentials, starting authorization")
		authorize := AuthorizeCmd{
			GoogleConfig:  c.GoogleConfig,
			StorageConfig: c.StorageConfig,
			Timeout:       5 * time.Minute,
		}
		if err := authorize.authorize(ctx); err != nil {
			return trace.Wrap(err)
		}
		fmt.Println("Run the command again to rate.")
		return nil
	}
	if err != nil {
		return trace.Wrap(err)
	}

	actor := youtube.NewActor(session, c.QueueSize)
	process := job.NewProcess(ctx)
	defer process.Close()
	process.SpawnFunc(actor.Run, job.Critical(true))
	go lib.ServeSignals(ctx, process, shutdownTimeout)

	results := rateAll(ctx, actor, c.URLs, rating)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer shutdownCancel()
	if err := process.Shutdown(shutdownCtx); err != nil {
		return trace.Wrap(err)
	}
	if err := process.Err(); err != nil {
		return trace.Wrap(err)
	}

	return trace.Wrap(printResults(os.Stdout, results))
}

// rateAll submits every URL concurrently. Failures are reported per URL.
func rateAll(ctx context.Context, rater youtube.Rater, urls []string, rating youtube.Rating) []rateResult {
	results := make([]rateResult, len(urls))
	var group errgroup.Group
	for i, url := range urls {
		i, url := i, url
		group.Go(func() error {
			resp, err := rater.Rate(ctx, url, rating)
			results[i] = rateResult{url: url, resp: resp, err: err}
			return nil
		})
	}
	group.Wait()
	return results
}

func printResults(w io.Writer, results []rateResult) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"URL", "Status", "Detail"})
	table.SetAutoWrapText(false)

	var errs []error
	for _, result := range results {
		switch {
		case result.err != nil:
			errs = append(errs, trace.Wrap(result.err, "rating %s", result.url))
			table.Append([]string{result.url, "error", result.err.Error()})
		case !result.resp.IsSuccess():
			errs = append(errs, trace.Errorf("rating %s: %s", result.url, result.resp.Status))
			table.Append([]string{result.url, strconv.Itoa(result.resp.StatusCode), string(result.resp.Body)})
		default:
			table.Append([]string{result.url, strconv.Itoa(result.resp.StatusCode), "ok"})
		}
	}
	table.Render()
	return trace.NewAggregate(errs...)
}
