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
	"os"

	"github.com/fum-tui/fum-youtube/lib"
)

// VersionCmd prints the version
type VersionCmd struct{}

// Run prints the version
func (c *VersionCmd) Run(cli *CLI) error {
	lib.PrintVersion(os.Stdout, appName, Version, Gitref)
	return nil
}
