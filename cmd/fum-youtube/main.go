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
	"github.com/alecthomas/kong"

	"github.com/fum-tui/fum-youtube/lib"
	"github.com/fum-tui/fum-youtube/lib/logger"
)

const (
	appName        = "fum-youtube"
	appDescription = "Authorizes against Google once and rates YouTube videos on the user's behalf"
)

// Version and Gitref are set at build time.
var (
	Version = "0.0.0-dev"
	Gitref  = ""
)

var cli CLI

func main() {
	logger.Init()

	ctx := kong.Parse(
		&cli,
		kong.UsageOnError(),
		kong.Configuration(KongTOMLResolver),
		kong.Name(appName),
		kong.Description(appDescription),
		Vars(),
	)

	if err := cli.setupLogger(); err != nil {
		lib.Bail(err)
	}

	// See respective commands Run() methods
	if err := ctx.Run(&cli); err != nil {
		lib.Bail(err)
	}
}
