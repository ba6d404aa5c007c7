package youtube

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"

	"github.com/fum-tui/fum-youtube/auth/state"
	"github.com/fum-tui/fum-youtube/lib"
)

type fakeExchanger struct {
	calls int32
	creds *state.Credentials
	err   error

	code        string
	redirectURI string
}

func (f *fakeExchanger) Exchange(_ context.Context, code string, redirectURI string) (*state.Credentials, error) {
	atomic.AddInt32(&f.calls, 1)
	f.code, f.redirectURI = code, redirectURI
	if f.err != nil {
		return nil, f.err
	}
	return f.creds, nil
}

type memoryState struct {
	mu    sync.Mutex
	creds *state.Credentials
	puts  int
	err   error
}

func (m *memoryState) GetCredentials(context.Context) (*state.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, trace.NotFound("no credentials")
	}
	creds := *m.creds
	return &creds, nil
}

func (m *memoryState) PutCredentials(_ context.Context, creds *state.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	saved := *creds
	m.creds = &saved
	m.puts++
	return nil
}

func freeLoopbackAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

// callbackVisit is a redirect the fake browser performs.
type callbackVisit struct {
	query      url.Values
	wrongState bool
}

type visitResult struct {
	status int
	body   string
}

// fakeBrowser follows the consent URL straight to the redirect URI with the given visits.
func fakeBrowser(t *testing.T, results *[]visitResult, visits ...callbackVisit) func(string) error {
	return func(consentURL string) error {
		consent, err := url.Parse(consentURL)
		require.NoError(t, err)
		q := consent.Query()
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "offline", q.Get("access_type"))
		require.Equal(t, DefaultScope, q.Get("scope"))

		redirect, err := url.Parse(q.Get("redirect_uri"))
		require.NoError(t, err)
		for _, visit := range visits {
			values := url.Values{}
			for k, v := range visit.query {
				values[k] = v
			}
			values.Set("state", q.Get("state"))
			if visit.wrongState {
				values.Set("state", "forged")
			}
			target := *redirect
			target.RawQuery = values.Encode()

			resp, err := http.Get(target.String())
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			require.NoError(t, err)
			*results = append(*results, visitResult{status: resp.StatusCode, body: string(body)})
		}
		return nil
	}
}

func newAuthorizeConfig(t *testing.T, exchanger *fakeExchanger, store *memoryState) AuthorizeConfig {
	addr := freeLoopbackAddr(t)
	return AuthorizeConfig{
		Config: Config{
			ClientID:     "my-client-id",
			ClientSecret: "my-client-secret",
			ListenAddr:   addr,
			RedirectURL:  "http://" + addr + "/callback",
		},
		Exchanger: exchanger,
		State:     store,
		Output:    &bytes.Buffer{},
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAuthorizeSuccess(t *testing.T) {
	issued := &state.Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	exchanger := &fakeExchanger{creds: issued}
	store := &memoryState{}
	conf := newAuthorizeConfig(t, exchanger, store)

	var visits []visitResult
	conf.OpenBrowser = fakeBrowser(t, &visits, callbackVisit{query: url.Values{"code": {"auth-code"}}})

	creds, err := Authorize(testContext(t), conf)
	require.NoError(t, err)
	require.Equal(t, issued, creds)

	require.Len(t, visits, 1)
	require.Equal(t, http.StatusOK, visits[0].status)
	require.Equal(t, callbackSuccessMessage, visits[0].body)

	require.EqualValues(t, 1, atomic.LoadInt32(&exchanger.calls))
	require.Equal(t, "auth-code", exchanger.code)
	require.Equal(t, conf.RedirectURL, exchanger.redirectURI)
	require.Equal(t, 1, store.puts)
	require.Equal(t, "access", store.creds.AccessToken)

	require.Contains(t, conf.Output.(*bytes.Buffer).String(), "client_id=my-client-id")

	// The listener is released once the flow is done.
	listener, err := net.Listen("tcp", conf.ListenAddr)
	require.NoError(t, err)
	listener.Close()
}

func TestAuthorizeProviderError(t *testing.T) {
	exchanger := &fakeExchanger{}
	store := &memoryState{}
	conf := newAuthorizeConfig(t, exchanger, store)

	var visits []visitResult
	conf.OpenBrowser = fakeBrowser(t, &visits, callbackVisit{query: url.Values{"error": {"access_denied"}}})

	_, err := Authorize(testContext(t), conf)
	require.Error(t, err)
	require.True(t, IsProviderError(err), "expected ProviderError, got %v", err)
	require.ErrorContains(t, err, "access_denied")

	require.Zero(t, atomic.LoadInt32(&exchanger.calls))
	require.Zero(t, store.puts)
}

func TestAuthorizeOnlyOneCallbackCounts(t *testing.T) {
	exchanger := &fakeExchanger{creds: &state.Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	store := &memoryState{}
	conf := newAuthorizeConfig(t, exchanger, store)

	var visits []visitResult
	conf.OpenBrowser = fakeBrowser(t, &visits,
		callbackVisit{query: url.Values{"code": {"forged-code"}}, wrongState: true},
		callbackVisit{query: url.Values{}},
		callbackVisit{query: url.Values{"code": {"auth-code"}}},
		callbackVisit{query: url.Values{"code": {"replayed-code"}}},
	)

	_, err := Authorize(testContext(t), conf)
	require.NoError(t, err)

	require.Len(t, visits, 4)
	require.Equal(t, http.StatusBadRequest, visits[0].status)
	require.Equal(t, http.StatusBadRequest, visits[1].status)
	require.Equal(t, http.StatusOK, visits[2].status)
	require.Equal(t, http.StatusGone, visits[3].status)

	require.EqualValues(t, 1, atomic.LoadInt32(&exchanger.calls))
	require.Equal(t, "auth-code", exchanger.code)
}

func TestAuthorizeExchangeFailure(t *testing.T) {
	exchanger := &fakeExchanger{err: &ExchangeError{GrantType: grantTypeAuthorizationCode, Err: trace.Errorf("invalid_grant")}}
	store := &memoryState{}
	conf := newAuthorizeConfig(t, exchanger, store)

	var visits []visitResult
	conf.OpenBrowser = fakeBrowser(t, &visits, callbackVisit{query: url.Values{"code": {"auth-code"}}})

	_, err := Authorize(testContext(t), conf)
	require.True(t, IsExchangeError(err), "expected ExchangeError, got %v", err)
	require.Zero(t, store.puts)
}

func TestAuthorizeBrowserFailurePrintsURL(t *testing.T) {
	conf := newAuthorizeConfig(t, &fakeExchanger{}, &memoryState{})
	conf.OpenBrowser = func(string) error { return trace.NotFound("no browser") }

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Authorize(ctx, conf)
	require.Error(t, err)
	require.True(t, lib.IsDeadline(err), "expected deadline, got %v", err)
	require.Contains(t, conf.Output.(*bytes.Buffer).String(), "response_type=code")
}

func TestAuthorizePortTaken(t *testing.T) {
	conf := newAuthorizeConfig(t, &fakeExchanger{}, &memoryState{})
	listener, err := net.Listen("tcp", conf.ListenAddr)
	require.NoError(t, err)
	defer listener.Close()

	opened := false
	conf.OpenBrowser = func(string) error { opened = true; return nil }

	_, err = Authorize(testContext(t), conf)
	require.True(t, trace.IsConnectionProblem(err), "expected ConnectionProblem, got %v", err)
	require.False(t, opened, "browser must not be opened without a listener")
}
