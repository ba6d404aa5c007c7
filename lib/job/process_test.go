package job

import (
	"context"
	"testing"
	"time"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestProcessShutdownWaitsForJobs(t *testing.T) {
	process := NewProcess(context.Background())
	finished := make(chan struct{})

	process.SpawnFunc(func(ctx context.Context) error {
		<-Stopped(ctx)
		close(finished)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, process.Shutdown(ctx))

	select {
	case <-finished:
	default:
		t.Fatal("job has not finished before shutdown returned")
	}
	require.NoError(t, process.Err())
}

func TestProcessCriticalJobStopsProcess(t *testing.T) {
	process := NewProcess(context.Background())
	result := NewFutureResult()

	process.SpawnFunc(func(ctx context.Context) error {
		<-Stopped(ctx)
		return nil
	}, WithResult(result))
	process.SpawnFunc(func(ctx context.Context) error {
		return trace.BadParameter("boom")
	}, Critical(true))

	require.Eventually(t, func() bool {
		select {
		case <-process.Done():
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	require.True(t, trace.IsBadParameter(process.Err()))
	require.NoError(t, result.Err())
}

func TestProcessCloseCancelsJobs(t *testing.T) {
	process := NewProcess(context.Background())
	result := NewFutureResult()

	process.SpawnFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithResult(result))

	process.Close()
	require.ErrorIs(t, result.Err(), context.Canceled)
}

func TestStoppedOutsideOfJob(t *testing.T) {
	require.Nil(t, Stopped(context.Background()))
}

func TestFutureResultSetOnce(t *testing.T) {
	result := NewFutureResult()
	result.SetError(trace.NotFound("first"))
	result.SetError(nil)

	<-result.Done()
	require.True(t, trace.IsNotFound(result.Err()))
}
