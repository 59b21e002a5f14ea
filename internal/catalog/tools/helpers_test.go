package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curatai/curatai/internal/common/httpclient"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeCatalog routes "METHOD /path" to canned handlers and records every
// request it receives.
type fakeCatalog struct {
	t        *testing.T
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
	srv      *httptest.Server
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	f := &fakeCatalog{t: t, routes: map[string]http.HandlerFunc{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
		})
		h, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCatalog) json(method, path, body string) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
}

func (f *fakeCatalog) status(method, path string, code int, body string) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		w.Write([]byte(body))
	})
}

func (f *fakeCatalog) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeCatalog) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeCatalog) count(method, path string) int {
	n := 0
	for _, r := range f.recorded() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// instantTimer fires immediately and remembers the requested delays.
type instantTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (t *instantTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	c := make(chan time.Time, 1)
	c <- time.Now()
	return c
}

func (f *fakeCatalog) deps(opts ...DepsOption) (*Deps, *instantTimer) {
	c, err := httpclient.NewHTTPClient(f.srv.URL)
	require.NoError(f.t, err)
	timer := &instantTimer{}
	opts = append([]DepsOption{WithPollTimer(timer)}, opts...)
	return NewDeps(c, opts...), timer
}

var bg = context.Background()
