package lib

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/gravitational/trace"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

const defaultReadHeaderTimeout = 10 * time.Second

// HTTPConfig is the configuration of a plain HTTP listener.
type HTTPConfig struct {
	Listen     string `toml:"listen"`
	RawBaseURL string `toml:"base-url"`
}

// HTTP is a tiny wrapper around standard net/http.
// Binding the listener is a separate step from serving, so callers can be
// sure the port is taken before they hand out URLs pointing at it.
// The server is closed when the context passed to Serve is cancelled.
type HTTP struct {
	HTTPConfig
	baseURL *url.URL
	*httprouter.Router
	server http.Server

	mu       sync.Mutex // protects the below fields
	listener net.Listener
	serving  bool
}

// BaseURL builds a base url from the "base-url" setting, falling back to the listen address.
func (conf *HTTPConfig) BaseURL() (*url.URL, error) {
	if raw := conf.RawBaseURL; raw != "" {
		return url.Parse(raw)
	}
	if conf.Listen != "" {
		return &url.URL{Scheme: "http", Host: conf.Listen}, nil
	}
	return &url.URL{}, nil
}

// Check validates the configuration.
func (conf *HTTPConfig) Check() error {
	if conf.Listen == "" {
		return trace.BadParameter("listen address is required")
	}
	if _, _, err := net.SplitHostPort(conf.Listen); err != nil {
		return trace.BadParameter("invalid listen address %q: %v", conf.Listen, err)
	}
	if _, err := conf.BaseURL(); err != nil {
		return trace.Wrap(err)
	}
	return nil
}

// NewHTTP creates a new HTTP wrapper
func NewHTTP(config HTTPConfig) (*HTTP, error) {
	if err := config.Check(); err != nil {
		return nil, trace.Wrap(err)
	}
	baseURL, err := config.BaseURL()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	router := httprouter.New()

	return &HTTP{
		HTTPConfig: config,
		baseURL:    baseURL,
		Router:     router,
		server:     http.Server{Handler: router, ReadHeaderTimeout: defaultReadHeaderTimeout},
	}, nil
}

// Bind takes the listen address. It is a no-op when already bound.
func (h *HTTP) Bind() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", h.Listen)
	if err != nil {
		return trace.ConnectionProblem(err, "failed to listen on %s", h.Listen)
	}
	h.listener = listener
	log.Debugf("HTTP listener bound to %s", listener.Addr())
	return nil
}

// Addr returns the bound address, or nil before Bind.
func (h *HTTP) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Serve serves requests on the bound listener, binding it first if needed.
// It returns nil once the server is shut down or ctx is done.
func (h *HTTP) Serve(ctx context.Context) error {
	defer log.Debug("HTTP server terminated")

	if err := h.Bind(); err != nil {
		return trace.Wrap(err)
	}
	h.mu.Lock()
	listener := h.listener
	h.serving = true
	h.mu.Unlock()

	h.server.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}
	go func() {
		<-ctx.Done()
		h.server.Close()
	}()

	log.Debugf("Starting HTTP server on %s", listener.Addr())
	err := h.server.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return trace.Wrap(err)
}

// ListenAndServe binds the listen address and serves on it.
func (h *HTTP) ListenAndServe(ctx context.Context) error {
	return trace.Wrap(h.Serve(ctx))
}

// Shutdown stops the server gracefully.
func (h *HTTP) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.serving && h.listener != nil {
		// Bound but never served: nobody else will release the port.
		h.listener.Close()
	}
	h.mu.Unlock()
	return trace.Wrap(h.server.Shutdown(ctx))
}

// ShutdownWithTimeout stops the server gracefully.
func (h *HTTP) ShutdownWithTimeout(ctx context.Context, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	return h.Shutdown(ctx)
}

// BaseURL returns an url on which the server is accessible externally.
func (h *HTTP) BaseURL() *url.URL {
	url := *h.baseURL
	return &url
}

// NewURL builds an external url for a specific path and query parameters.
func (h *HTTP) NewURL(subpath string, values url.Values) *url.URL {
	url := h.BaseURL()
	url.Path = path.Join(url.Path, subpath)

	if values != nil {
		url.RawQuery = values.Encode()
	}

	return url
}
