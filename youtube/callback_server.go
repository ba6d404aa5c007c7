package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gravitational/trace"
	"github.com/julienschmidt/httprouter"

	"github.com/fum-tui/fum-youtube/lib"
	"github.com/fum-tui/fum-youtube/lib/logger"
)

const callbackSuccessMessage = "Successfully handled google callback. You can close this page now"

// callbackResult is what the provider sent to the redirect URI.
type callbackResult struct {
	code          string
	providerError string
}

// callbackServer is a loopback HTTP server accepting exactly one
// authorization redirect from the provider.
type callbackServer struct {
	http    *lib.HTTP
	state   string
	results chan callbackResult

	handled uint32
	counter uint64
}

// newCallbackServer registers the handler on the path of redirectURL.
func newCallbackServer(listenAddr, redirectURL, state string) (*callbackServer, error) {
	redirect, err := url.Parse(redirectURL)
	if err != nil {
		return nil, trace.BadParameter("invalid redirect URL %q: %v", redirectURL, err)
	}
	route := redirect.Path
	if route == "" {
		route = "/"
	}

	httpSrv, err := lib.NewHTTP(lib.HTTPConfig{Listen: listenAddr, RawBaseURL: redirectURL})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	srv := &callbackServer{
		http:    httpSrv,
		state:   state,
		results: make(chan callbackResult, 1),
	}
	httpSrv.GET(route, srv.processCallback)
	return srv, nil
}

// Bind takes the listen address so the consent URL can be handed out safely.
func (s *callbackServer) Bind() error {
	return trace.Wrap(s.http.Bind())
}

// Addr returns the bound address.
func (s *callbackServer) Addr() string {
	if addr := s.http.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Serve runs until ctx is done or the server is shut down.
func (s *callbackServer) Serve(ctx context.Context) error {
	return trace.Wrap(s.http.Serve(ctx))
}

// Results yields the single accepted callback.
func (s *callbackServer) Results() <-chan callbackResult {
	return s.results
}

// ShutdownWithTimeout waits up to timeout for the response to the accepted callback to be sent.
func (s *callbackServer) ShutdownWithTimeout(ctx context.Context, timeout time.Duration) error {
	return trace.Wrap(s.http.ShutdownWithTimeout(ctx, timeout))
}

func (s *callbackServer) processCallback(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httpRequestID := fmt.Sprintf("callback-%v", atomic.AddUint64(&s.counter, 1))
	_, log := logger.WithField(r.Context(), "http_id", httpRequestID)

	q := r.URL.Query()
	result := callbackResult{
		code:          q.Get("code"),
		providerError: q.Get("error"),
	}
	if result.code == "" && result.providerError == "" {
		log.Warn("Callback carries neither code nor error")
		http.Error(rw, "missing code parameter", http.StatusBadRequest)
		return
	}
	if q.Get("state") != s.state {
		log.Warn("Callback state does not match the authorization request")
		http.Error(rw, "state mismatch", http.StatusBadRequest)
		return
	}
	if !atomic.CompareAndSwapUint32(&s.handled, 0, 1) {
		log.Warn("Authorization callback already handled")
		http.Error(rw, "authorization callback already handled", http.StatusGone)
		return
	}

	if result.providerError != "" {
		log.WithField("error", result.providerError).Error("Provider rejected the authorization")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprintf(rw, "Authorization failed: %s. You can close this page now", result.providerError)
	} else {
		log.Debug("Received authorization code")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprint(rw, callbackSuccessMessage)
	}
	if flusher, ok := rw.(http.Flusher); ok {
		flusher.Flush()
	}
	s.results <- result
}
