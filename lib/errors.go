package lib

import (
	"context"
	"errors"

	"github.com/gravitational/trace"
)

// IsCanceled reports whether err is, or wraps, a context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(trace.Unwrap(err), context.Canceled) || errors.Is(err, context.Canceled)
}

// IsDeadline reports whether err is, or wraps, an expired context deadline.
func IsDeadline(err error) bool {
	return errors.Is(trace.Unwrap(err), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}
