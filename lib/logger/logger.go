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

package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Config is the logging section of the configuration file.
type Config struct {
	Output   string `toml:"output"`
	Severity string `toml:"severity"`
}

type contextKey struct{}

// Init sets up the standard logger for a typical CLI scenario until the configuration is parsed.
func Init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
}

// Setup applies the logging configuration to the standard logger.
func Setup(conf Config) error {
	var output io.Writer
	switch strings.ToLower(conf.Output) {
	case "", "stderr", "error", "2":
		output = os.Stderr
	case "stdout", "out", "1":
		output = os.Stdout
	default:
		// assume it's a file path
		file, err := os.OpenFile(conf.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return trace.Wrap(err, "failed to open the log file %q", conf.Output)
		}
		output = file
	}
	log.SetOutput(output)

	severity := conf.Severity
	if severity == "" {
		severity = "info"
	}
	level, err := log.ParseLevel(severity)
	if err != nil {
		return trace.BadParameter("unsupported logger severity: %q", conf.Severity)
	}
	log.SetLevel(level)

	return nil
}

// Standard returns the process-wide logger.
func Standard() *log.Logger {
	return log.StandardLogger()
}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger log.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithField attaches a field to the context logger.
func WithField(ctx context.Context, key string, value interface{}) (context.Context, log.FieldLogger) {
	logger := Get(ctx).WithField(key, value)
	return WithLogger(ctx, logger), logger
}

// WithFields attaches a set of fields to the context logger.
func WithFields(ctx context.Context, fields log.Fields) (context.Context, log.FieldLogger) {
	logger := Get(ctx).WithFields(fields)
	return WithLogger(ctx, logger), logger
}

// Get returns the context logger or the standard one.
func Get(ctx context.Context) log.FieldLogger {
	if logger, ok := ctx.Value(contextKey{}).(log.FieldLogger); ok && logger != nil {
		return logger
	}
	return Standard()
}
