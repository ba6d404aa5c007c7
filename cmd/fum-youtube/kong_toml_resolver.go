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
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/gravitational/trace"
	"github.com/pelletier/go-toml"
)

// KongTOMLResolver is the kong resolver function for toml configuration file.
// A flag is looked up under its own name first, then within a section named
// after its first word: "google-client-id" is read from client-id in [google].
func KongTOMLResolver(r io.Reader) (kong.Resolver, error) {
	config, err := toml.LoadReader(r)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	// ResolverFunc reads configuration variables from the external source, TOML file in this case
	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		name := flag.Name

		if value := config.Get(name); value != nil {
			return value, nil
		}

		section, key, ok := strings.Cut(name, "-")
		if !ok {
			return nil, nil
		}
		// GetPath takes the key verbatim, dots and all.
		valueWithinSection := config.GetPath([]string{section, key})
		return valueWithinSection, nil
	}

	return f, nil
}
