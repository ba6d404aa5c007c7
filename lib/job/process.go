/*
Copyright 2020-2021 Gravitational, Inc.

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

import (
	"context"
	"sync"

	"github.com/gravitational/trace"
)

// Process runs a group of jobs, each on its own goroutine.
// Done is closed once the process is stopped and every job has returned.
type Process struct {
	ctx    context.Context
	cancel context.CancelFunc

	stopCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex // protects the below fields
	counter uint
	doneCh  chan struct{}
	err     error
}

type processKey struct{}

// NewProcess creates a process bound to ctx. Cancelling ctx terminates
// every job immediately.
func NewProcess(ctx context.Context) *Process {
	ctx, cancel := context.WithCancel(ctx)
	process := &Process{
		cancel:  cancel,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		counter: 1, // ONE means a single main "job" released by Stop.
	}
	process.ctx = context.WithValue(ctx, processKey{}, process)
	return process
}

func (p *Process) spawn(job Job, opts SpawnOptions) {
	p.join()

	var stopCh <-chan struct{} = p.stopCh
	jobCtx := context.WithValue(p.ctx, stopKey{}, stopCh)

	go func() {
		defer p.leave()
		err := trace.Wrap(job.DoJob(jobCtx))
		if opts.ResultSetter != nil {
			opts.ResultSetter.SetError(err)
		}
		if err != nil && opts.Critical {
			p.setErr(err)
			p.Stop()
		}
	}()
}

// Done channel is used to wait for jobs completion.
func (p *Process) Done() <-chan struct{} {
	if p == nil {
		return alreadyDone
	}
	return p.doneCh
}

// Err returns the first error returned by a critical job.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop signals a process to terminate gracefully. Jobs observe it through Stopped(ctx).
func (p *Process) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.leave() // Stop the main "job".
	})
}

// Shutdown signals a process to terminate and waits for completion of all jobs.
func (p *Process) Shutdown(ctx context.Context) error {
	p.Stop()
	select {
	case <-ctx.Done():
		return trace.Wrap(ctx.Err())
	case <-p.Done():
		return nil
	}
}

// Close shuts down all process jobs immediately.
func (p *Process) Close() {
	if p == nil {
		return
	}
	p.cancel()
	p.Stop()
	<-p.doneCh
}

// GetProcess gets a currently running job's process.
func GetProcess(ctx context.Context) *Process {
	if process, ok := ctx.Value(processKey{}).(*Process); ok {
		return process
	}
	return nil
}

func (p *Process) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

func (p *Process) join() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counter == 0 {
		panic("failed to spawn job: process already finished")
	}
	p.counter++
}

func (p *Process) leave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counter == 0 {
		panic("failed to decrement zero job counter")
	}
	p.counter--
	if p.counter == 0 {
		close(p.doneCh)
	}
}

var alreadyDone = make(chan struct{})

func init() {
	close(alreadyDone)
}
