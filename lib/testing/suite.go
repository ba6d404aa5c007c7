package testing

import (
	"context"
	"time"

	"github.com/fum-tui/fum-youtube/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite is a testify suite handing out per-test contexts with a deadline.
type Suite struct {
	suite.Suite
	appCtx context.Context
	ctx    context.Context
	app    AppI
}

// AppI is a long running component started by a test.
type AppI interface {
	Run(ctx context.Context) error
	Close()
	Done() <-chan struct{}
}

// SetContext sets up the test contexts. The app context outlives the test
// context slightly, so test assertions fail before the app does.
func (s *Suite) SetContext(timeout time.Duration) (context.Context, context.Context) {
	t := s.T()
	t.Helper()

	require.Nil(t, s.appCtx, "Context cannot be set twice")

	ctx, _ := logger.WithField(context.Background(), "test", t.Name())
	appCtx, appCtxCancel := context.WithTimeout(ctx, timeout+100*time.Millisecond)
	ctx, cancel := context.WithTimeout(appCtx, timeout)
	t.Cleanup(func() {
		cancel()
		appCtxCancel()
		s.appCtx = nil
		s.ctx = nil
	})
	s.appCtx, s.ctx = appCtx, ctx
	return appCtx, ctx
}

// AppCtx returns the context apps are started with.
func (s *Suite) AppCtx() context.Context {
	if ctx := s.appCtx; ctx != nil {
		return ctx
	}
	ctx, _ := s.SetContext(5 * time.Second)
	return ctx
}

// Ctx returns the test context.
func (s *Suite) Ctx() context.Context {
	t := s.T()
	t.Helper()

	if ctx := s.ctx; ctx != nil {
		return ctx
	}
	_, ctx := s.SetContext(5 * time.Second)
	return ctx
}

// StartApp runs app in the background and closes it at the end of the test.
func (s *Suite) StartApp(app AppI) {
	t := s.T()
	t.Helper()

	require.Nil(t, s.app, "Cannot start app twice")

	ctx := s.AppCtx()
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run(ctx)
	}()

	t.Cleanup(func() {
		app.Close()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			assert.Fail(t, "app did not stop in time")
		}
		s.app = nil
	})
	s.app = app
}
