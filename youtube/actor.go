package youtube

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gravitational/trace"

	"github.com/fum-tui/fum-youtube/lib/job"
	"github.com/fum-tui/fum-youtube/lib/logger"
)

// VideoRater performs a single rating call. *Session implements it.
type VideoRater interface {
	RateVideo(ctx context.Context, videoURL string, rating Rating) (*RateResponse, error)
}

type reply struct {
	resp *RateResponse
	err  error
}

type command struct {
	req   RatingRequest
	reply chan reply
}

// Actor serializes rating requests onto a single worker that exclusively
// owns the session. Requests are served one at a time in submission order.
type Actor struct {
	rater    VideoRater
	commands chan command

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  int32
}

// NewActor returns an actor with a queue of queueSize pending requests.
// The actor does nothing until Run is called.
func NewActor(rater VideoRater, queueSize int) *Actor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Actor{
		rater:    rater,
		commands: make(chan command, queueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run serves requests until Close is called, the enclosing job process is
// stopped or ctx is done. On Close or stop the requests already queued are
// served before Run returns. When ctx is done they fail with ActorUnavailableError.
func (a *Actor) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&a.running, 0, 1) {
		return trace.AlreadyExists("actor is already running")
	}
	defer close(a.done)
	log := logger.Get(ctx)
	log.Debug("Rating actor started")
	defer log.Debug("Rating actor stopped")

	stopped := job.Stopped(ctx)
	for {
		if ctx.Err() != nil {
			return trace.Wrap(ctx.Err())
		}
		select {
		case cmd := <-a.commands:
			a.serve(ctx, cmd)
		case <-stopped:
			a.Close()
			stopped = nil
		case <-a.stop:
			a.drain(ctx)
			return nil
		case <-ctx.Done():
			return trace.Wrap(ctx.Err())
		}
	}
}

// drain serves whatever is left in the queue. Submit refuses new requests
// once stop is closed, so the queue only shrinks.
func (a *Actor) drain(ctx context.Context) {
	for {
		select {
		case cmd := <-a.commands:
			a.serve(ctx, cmd)
		default:
			return
		}
	}
}

func (a *Actor) serve(ctx context.Context, cmd command) {
	ctx, log := logger.WithField(ctx, "video_url", cmd.req.VideoURL)
	var replied bool
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Rating request panicked: %v", r)
			if !replied {
				cmd.reply <- reply{err: trace.Errorf("rating request panicked: %v", r)}
			}
		}
	}()

	resp, err := a.rater.RateVideo(ctx, cmd.req.VideoURL, cmd.req.Rating)
	if err != nil {
		log.WithError(err).Warn("Rating request failed")
	}
	cmd.reply <- reply{resp: resp, err: err}
	replied = true
}

// Submit enqueues req and blocks until it is served. A full queue blocks
// the caller. It fails with ActorUnavailableError once the actor is closed
// or has stopped, and with the context error if ctx is done first.
func (a *Actor) Submit(ctx context.Context, req RatingRequest) (*RateResponse, error) {
	select {
	case <-a.stop:
		return nil, &ActorUnavailableError{Reason: "actor is closed"}
	default:
	}

	cmd := command{req: req, reply: make(chan reply, 1)}
	select {
	case a.commands <- cmd:
	case <-a.stop:
		return nil, &ActorUnavailableError{Reason: "actor is closed"}
	case <-a.done:
		return nil, &ActorUnavailableError{Reason: "actor has stopped"}
	case <-ctx.Done():
		return nil, trace.Wrap(ctx.Err())
	}

	select {
	case r := <-cmd.reply:
		return r.resp, r.err
	case <-a.done:
		// The reply may have been sent right before the actor returned.
		select {
		case r := <-cmd.reply:
			return r.resp, r.err
		default:
			return nil, &ActorUnavailableError{Reason: "actor stopped before serving the request"}
		}
	case <-ctx.Done():
		return nil, trace.Wrap(ctx.Err())
	}
}

// Rate submits a rating request. It implements Rater.
func (a *Actor) Rate(ctx context.Context, videoURL string, rating Rating) (*RateResponse, error) {
	return a.Submit(ctx, RatingRequest{VideoURL: videoURL, Rating: rating})
}

// Close stops accepting new requests. Run serves the queued ones and returns.
func (a *Actor) Close() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Done is closed once Run has returned.
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

var _ Rater = &Actor{}
