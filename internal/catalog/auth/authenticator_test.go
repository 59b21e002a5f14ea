package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/curatai/curatai/internal/common/httpclient"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// identityServer emulates the catalog identity endpoints. Each access token
// mint pops the next expiry from expiries.
type identityServer struct {
	*httptest.Server
	mu           sync.Mutex
	refreshCalls int
	accessCalls  int
	expiries     []string
	lastToken    string
	refreshBody  string
	failStatus   int
}

func newIdentityServer(t *testing.T, expiries ...string) *identityServer {
	s := &identityServer{expiries: expiries}
	mux := http.NewServeMux()
	mux.HandleFunc(RefreshTokenPath, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.refreshCalls++
		b, _ := io.ReadAll(r.Body)
		s.refreshBody = string(b)
		if s.failStatus != 0 {
			w.WriteHeader(s.failStatus)
			w.Write([]byte(`{"detail":"bad credentials"}`))
			return
		}
		w.Write([]byte(`{"refresh_token":"refresh-1","user_id":42,"name":"AlationAPI"}`))
	})
	mux.HandleFunc(AccessTokenPath, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.accessCalls++
		exp := s.expiries[0]
		if len(s.expiries) > 1 {
			s.expiries = s.expiries[1:]
		}
		token := "access-" + string(rune('0'+s.accessCalls))
		json.NewEncoder(w).Encode(AccessToken{
			APIAccessToken: token,
			UserID:         42,
			CreatedAt:      "2025-06-01T00:00:00Z",
			TokenExpiresAt: exp,
			TokenStatus:    "ACTIVE",
		})
	})
	mux.HandleFunc("/integration/v2/table/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastToken = r.Header.Get(httpclient.TokenHeader)
		s.mu.Unlock()
		w.Write([]byte(`[]`))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestAuthenticator(t *testing.T, url string, clock *fakeClock) *Authenticator {
	a, err := NewAuthenticator(Credentials{
		BaseURL:  url,
		Username: "steward@example.com",
		Password: "secret",
	}, WithClock(clock.Now))
	require.NoError(t, err)
	return a
}

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAuthenticate(t *testing.T) {
	srv := newIdentityServer(t, "2025-06-01T13:00:00Z")
	clock := &fakeClock{now: t0}
	a := newTestAuthenticator(t, srv.URL, clock)

	sess, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	again, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Same(t, sess, again)

	assert.Equal(t, 1, srv.refreshCalls)
	assert.Equal(t, 1, srv.accessCalls)
	assert.Equal(t, "steward@example.com", gjson.Get(srv.refreshBody, "username").String())
	assert.Equal(t, "AlationAPI", gjson.Get(srv.refreshBody, "name").String())

	_, err = sess.GetResource(context.Background(), "/integration/v2/table/", nil)
	require.NoError(t, err)
	assert.Equal(t, "access-1", srv.lastToken)
	assert.False(t, a.IsTokenExpired())
}

func TestExpiredTokenRefreshesOnce(t *testing.T) {
	srv := newIdentityServer(t, "2025-06-01T13:00:00Z", "2025-06-01T15:00:00.000000Z")
	clock := &fakeClock{now: t0}
	a := newTestAuthenticator(t, srv.URL, clock)

	sess, err := a.Authenticate(context.Background())
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	assert.True(t, a.IsTokenExpired())

	_, err = sess.GetResource(context.Background(), "/integration/v2/table/", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.refreshCalls)
	assert.Equal(t, 2, srv.accessCalls)
	assert.Equal(t, "access-2", srv.lastToken)
	assert.False(t, a.IsTokenExpired())

	token, err := a.AccessToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, 2, srv.accessCalls)
}

func TestForceRefresh(t *testing.T) {
	srv := newIdentityServer(t, "2025-06-01T13:00:00Z")
	clock := &fakeClock{now: t0}
	a := newTestAuthenticator(t, srv.URL, clock)

	sess, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Refresh(context.Background()))
	assert.Equal(t, 1, srv.refreshCalls)
	assert.Equal(t, 2, srv.accessCalls)

	_, err = sess.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.accessCalls)
}

func TestUnparseableExpiryIsExpired(t *testing.T) {
	srv := newIdentityServer(t, "next tuesday")
	clock := &fakeClock{now: t0}
	a := newTestAuthenticator(t, srv.URL, clock)

	sess, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, a.IsTokenExpired())
	assert.Equal(t, 1, srv.refreshCalls)
	assert.Equal(t, 1, srv.accessCalls)

	token, err := a.AccessToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, 1, srv.refreshCalls)
	assert.Equal(t, 2, srv.accessCalls)
}

func TestAuthenticationFailure(t *testing.T) {
	srv := newIdentityServer(t, "2025-06-01T13:00:00Z")
	srv.failStatus = http.StatusUnauthorized
	clock := &fakeClock{now: t0}
	a := newTestAuthenticator(t, srv.URL, clock)

	_, err := a.Authenticate(context.Background())
	require.Error(t, err)

	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "bad credentials")
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, 1, srv.refreshCalls)
	assert.Equal(t, 0, srv.accessCalls)
}

func TestNewAuthenticatorRequiresCredentials(t *testing.T) {
	_, err := NewAuthenticator(Credentials{BaseURL: "https://c.example.com"})
	assert.ErrorIs(t, err, ErrMissingUserInfo)

	_, err = NewAuthenticator(Credentials{BaseURL: "::", Username: "u", Password: "p"})
	assert.Error(t, err)
}

func TestExpiresAt(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-06-01T13:00:00Z", time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC), false},
		{"2025-06-01T13:00:00.250000Z", time.Date(2025, 6, 1, 13, 0, 0, 250000000, time.UTC), false},
		{"2025-06-01T18:30:00+05:30", time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC), false},
		{"2025-06-01T13:00:00", time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"garbage", time.Time{}, true},
	}
	for _, tt := range tests {
		tok := AccessToken{APIAccessToken: "x", TokenExpiresAt: tt.in}
		got, err := tok.ExpiresAt()
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			valid, verr := tok.ValidAt(t0)
			assert.False(t, valid)
			assert.Error(t, verr)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}
}

func TestAccessTokenJSONShape(t *testing.T) {
	raw := `{"api_access_token":"abc","user_id":42,"created_at":"2025-06-01T00:00:00Z","token_expires_at":"2025-06-02T00:00:00Z","token_status":"ACTIVE"}`
	var tok AccessToken
	require.NoError(t, json.Unmarshal([]byte(raw), &tok))
	out, err := json.Marshal(tok)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
