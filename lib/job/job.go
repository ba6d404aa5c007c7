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

package job

import "context"

// Job is a long-running unit of work owned by a Process.
type Job interface {
	// DoJob executes a job. It should return once Stopped(ctx) is closed
	// or ctx is done.
	DoJob(context.Context) error
}

// FuncJob is a simplest job represented as a mere function.
type FuncJob func(context.Context) error

// DoJob executes a job.
func (j FuncJob) DoJob(ctx context.Context) error {
	return j(ctx)
}

type stopKey struct{}

// Stopped returns a channel closed once the process running the job is
// asked to stop gracefully. Outside of a job context it returns nil,
// which blocks forever in a select.
func Stopped(ctx context.Context) <-chan struct{} {
	if stopCh, ok := ctx.Value(stopKey{}).(<-chan struct{}); ok {
		return stopCh
	}
	return nil
}
