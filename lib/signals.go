package lib

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

type Terminable interface {
	// Shutdown attempts to gracefully terminate.
	Shutdown(context.Context) error
	// Close does a fast (force) termination.
	Close()
}

// ServeSignals blocks until the app is terminated by SIGTERM or SIGINT.
// A second SIGINT forces a fast termination.
func ServeSignals(ctx context.Context, app Terminable, shutdownTimeout time.Duration) {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC,
		syscall.SIGTERM, // graceful shutdown
		syscall.SIGINT,  // graceful-then-fast shutdown
	)
	defer signal.Stop(sigC)

	gracefulShutdown := func() {
		tctx, tcancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer tcancel()
		log.Infof("Attempting graceful shutdown...")
		if err := app.Shutdown(tctx); err != nil {
			log.Infof("Graceful shutdown failed. Trying fast shutdown...")
			app.Close()
		}
	}
	var alreadyInterrupted bool
	for {
		var signal os.Signal
		select {
		case signal = <-sigC:
		case <-ctx.Done():
			return
		}
		switch signal {
		case syscall.SIGTERM:
			gracefulShutdown()
			return
		case syscall.SIGINT:
			if alreadyInterrupted {
				app.Close()
				return
			}
			go gracefulShutdown()
			alreadyInterrupted = true
		}
	}
}
