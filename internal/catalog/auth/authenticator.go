// Package auth implements the catalog session: refresh token exchange,
// access token minting and expiry tracking.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/common/httpclient"
	"github.com/curatai/curatai/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

const (
	RefreshTokenPath = "/integration/v1/createRefreshToken/"
	AccessTokenPath  = "/integration/v1/createAPIAccessToken/"
)

// Credentials identify one catalog account.
type Credentials struct {
	BaseURL   string
	Username  string
	Password  string
	TokenName string
}

// Authenticator owns the token state for one credential set. It is safe for
// concurrent use; minting is serialized.
type Authenticator struct {
	creds      Credentials
	client     *httpclient.HTTPClient
	clientOpts []httpclient.Option
	now        func() time.Time
	metrics    *metrics.Metrics

	mu      sync.Mutex
	refresh *RefreshToken
	access  *AccessToken
	session *Session
}

type Option func(*Authenticator)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

// WithClientOptions passes options to the underlying catalog client.
func WithClientOptions(opts ...httpclient.Option) Option {
	return func(a *Authenticator) {
		a.clientOpts = append(a.clientOpts, opts...)
	}
}

func NewAuthenticator(creds Credentials, opts ...Option) (*Authenticator, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrMissingUserInfo
	}
	if creds.TokenName == "" {
		creds.TokenName = "AlationAPI"
	}
	a := &Authenticator{
		creds: creds,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.metrics = metrics.OrNoop(a.metrics)
	clientOpts := append([]httpclient.Option{httpclient.WithMetrics(a.metrics)}, a.clientOpts...)
	client, err := httpclient.NewHTTPClient(creds.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return a, nil
}

// Authenticate obtains a valid access token and returns the session bound to
// it. Repeated calls return the same session.
func (a *Authenticator) Authenticate(ctx context.Context) (*Session, error) {
	if _, err := a.AccessToken(ctx, false); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		a.session = &Session{HTTPClient: a.client.WithTokens(a), auth: a}
	}
	return a.session, nil
}

// Token implements httpclient.TokenSource so every request re-checks expiry.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	return a.AccessToken(ctx, false)
}

// AccessToken returns a token whose expiry is after now, minting a refresh
// token and an access token as needed.
func (a *Authenticator) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !forceRefresh && !a.isExpiredLocked() {
		return a.access.APIAccessToken, nil
	}
	if a.refresh == nil {
		rt, err := a.mintRefreshToken(ctx)
		if err != nil {
			return "", err
		}
		a.refresh = rt
	}
	at, err := a.mintAccessToken(ctx)
	if err != nil {
		return "", err
	}
	a.access = at
	// an unparseable expiry still yields a usable token; the next call mints again
	return at.APIAccessToken, nil
}

// IsTokenExpired reports true when there is no token, when it has expired,
// or when its expiry cannot be parsed.
func (a *Authenticator) IsTokenExpired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isExpiredLocked()
}

func (a *Authenticator) isExpiredLocked() bool {
	if a.access == nil {
		return true
	}
	valid, err := a.access.ValidAt(a.now())
	if err != nil {
		log.Warn().
			Err(err).
			Str("token_expires_at", a.access.TokenExpiresAt).
			Msg("unable to parse token expiry, treating token as expired")
		return true
	}
	return !valid
}

type refreshTokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type accessTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
	UserID       int    `json:"user_id"`
}

func (a *Authenticator) mintRefreshToken(ctx context.Context) (*RefreshToken, error) {
	log.Ctx(ctx).Debug().Str("username", a.creds.Username).Msg("creating refresh token")
	body, err := a.post(ctx, RefreshTokenPath, refreshTokenRequest{
		Username: a.creds.Username,
		Password: a.creds.Password,
		Name:     a.creds.TokenName,
	})
	if err != nil {
		return nil, err
	}
	rt := &RefreshToken{}
	if err := json.Unmarshal(body, rt); err != nil {
		return nil, ErrInvalidToken.Err(err)
	}
	if err := validate.Struct(rt); err != nil {
		return nil, ErrInvalidToken.MsgErr("refresh token response is incomplete", err)
	}
	a.metrics.TokenMints.WithLabelValues("refresh").Inc()
	return rt, nil
}

func (a *Authenticator) mintAccessToken(ctx context.Context) (*AccessToken, error) {
	log.Ctx(ctx).Debug().Int("user_id", a.refresh.UserID).Msg("creating access token")
	body, err := a.post(ctx, AccessTokenPath, accessTokenRequest{
		RefreshToken: a.refresh.Token,
		UserID:       a.refresh.UserID,
	})
	if err != nil {
		return nil, err
	}
	at := &AccessToken{}
	if err := json.Unmarshal(body, at); err != nil {
		return nil, ErrInvalidToken.Err(err)
	}
	if err := validate.Struct(at); err != nil {
		return nil, ErrInvalidToken.MsgErr("access token response is incomplete", err)
	}
	a.metrics.TokenMints.WithLabelValues("access").Inc()
	return at, nil
}

func (a *Authenticator) post(ctx context.Context, path string, in any) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	body, err := a.client.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodPost,
		Path:   path,
		Body:   data,
	})
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &AuthenticationError{Endpoint: path, StatusCode: httpErr.StatusCode, Body: httpErr.Message}
		}
		return nil, ErrAuthentication.Err(err)
	}
	return body, nil
}
