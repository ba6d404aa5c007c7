package lib

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

func TestHTTPServeOnBoundListener(t *testing.T) {
	srv, err := NewHTTP(HTTPConfig{Listen: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.GET("/ping", func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_, _ = io.WriteString(rw, "pong")
	})

	require.NoError(t, srv.Bind())
	addr := srv.Addr()
	require.NotNil(t, addr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + addr.String() + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, "pong", string(body))

	require.NoError(t, srv.ShutdownWithTimeout(context.Background(), time.Second))
	require.NoError(t, <-served)
}

func TestHTTPBindTwiceFails(t *testing.T) {
	first, err := NewHTTP(HTTPConfig{Listen: "127.0.0.1:0"})
	require.NoError(t, err)
	require.NoError(t, first.Bind())
	defer first.Shutdown(context.Background())

	second, err := NewHTTP(HTTPConfig{Listen: first.Addr().String()})
	require.NoError(t, err)
	require.Error(t, second.Bind())
}

func TestHTTPConfigCheck(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{})
	require.Error(t, err)

	_, err = NewHTTP(HTTPConfig{Listen: "localhost"})
	require.Error(t, err)
}

func TestHTTPNewURL(t *testing.T) {
	srv, err := NewHTTP(HTTPConfig{Listen: "127.0.0.1:5000", RawBaseURL: "http://localhost:5000"})
	require.NoError(t, err)

	u := srv.NewURL("callback", url.Values{"code": []string{"abc"}})
	require.Equal(t, "http://localhost:5000/callback?code=abc", u.String())
}
