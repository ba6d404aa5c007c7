package lib

import (
	"context"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestIsCanceled(t *testing.T) {
	require.True(t, IsCanceled(trace.Wrap(context.Canceled)))
	require.False(t, IsCanceled(trace.Wrap(context.DeadlineExceeded)))
	require.False(t, IsCanceled(nil))
}

func TestIsDeadline(t *testing.T) {
	require.True(t, IsDeadline(trace.Wrap(context.DeadlineExceeded, "waiting for callback")))
	require.False(t, IsDeadline(trace.BadParameter("nope")))
}
