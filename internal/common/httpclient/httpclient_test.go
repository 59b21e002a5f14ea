package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatai/curatai/internal/metrics"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) { return "", errors.New("no token") }

func TestNewHTTPClient(t *testing.T) {
	_, err := NewHTTPClient("not a url")
	assert.Error(t, err)

	c, err := NewHTTPClient("https://catalog.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://catalog.example.com", c.BaseURL())
}

func TestURL(t *testing.T) {
	tests := []struct {
		base  string
		path  string
		query map[string]string
		want  string
	}{
		{"https://c.example.com", "/integration/v2/table/", nil, "https://c.example.com/integration/v2/table/"},
		{"https://c.example.com/", "/api/job/42/", nil, "https://c.example.com/api/job/42/"},
		{"https://c.example.com/root", "integration/v1/datasource/", nil, "https://c.example.com/root/integration/v1/datasource/"},
		{"https://c.example.com", "/integration/v2/table/", map[string]string{"name__iexact": "orders", "limit": "100"},
			"https://c.example.com/integration/v2/table/?limit=100&name__iexact=orders"},
	}
	for _, tt := range tests {
		c, err := NewHTTPClient(tt.base)
		require.NoError(t, err)
		got, err := c.URL(tt.path, tt.query)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDoRequest(t *testing.T) {
	var gotToken, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(TokenHeader)
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		switch r.URL.Path {
		case "/ok/":
			w.Write([]byte(`{"ok":true}`))
		case "/missing/":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`not here`))
		case "/slow/":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	m := metrics.New()
	c, err := NewHTTPClient(srv.URL, WithTokenSource(staticToken("tok-1")), WithMetrics(m))
	require.NoError(t, err)

	t.Run("success carries token and body", func(t *testing.T) {
		body, err := c.CreateResource(context.Background(), "/ok/", []byte(`{"a":1}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		assert.Equal(t, "tok-1", gotToken)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, `{"a":1}`, gotBody)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogRequests.WithLabelValues(http.MethodPost, "200")))
	})

	t.Run("non-2xx is an HTTPError", func(t *testing.T) {
		_, err := c.GetResource(context.Background(), "/missing/", nil)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.Equal(t, "404 - not here", httpErr.Error())
	})

	t.Run("per-request timeout", func(t *testing.T) {
		_, err := c.DoRequest(context.Background(), RequestOptions{
			Method:  http.MethodGet,
			Path:    "/slow/",
			Timeout: 20 * time.Millisecond,
		})
		assert.Error(t, err)
	})

	t.Run("token failure aborts before sending", func(t *testing.T) {
		gotToken = "unchanged"
		_, err := c.WithTokens(failingToken{}).GetResource(context.Background(), "/ok/", nil)
		assert.Error(t, err)
		assert.Equal(t, "unchanged", gotToken)
	})

	t.Run("no token source sends no header", func(t *testing.T) {
		_, err := c.WithTokens(nil).GetResource(context.Background(), "/ok/", nil)
		require.NoError(t, err)
		assert.Empty(t, gotToken)
	})
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":7,"name":"orders"}]`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	var rows []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, GetJSON(context.Background(), c, "/integration/v2/table/", nil, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].ID)
}
