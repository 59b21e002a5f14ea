package auth

import (
	"context"

	"github.com/curatai/curatai/internal/common/httpclient"
)

// Session is an authenticated catalog client. Each request fetches the
// current access token from the authenticator that created it.
type Session struct {
	*httpclient.HTTPClient
	auth *Authenticator
}

var _ httpclient.Requester = (*Session)(nil)

// Refresh forces a new access token; the refresh token is reused.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.auth.AccessToken(ctx, true)
	return err
}

// Ensure returns the session after checking its token is still valid.
func (s *Session) Ensure(ctx context.Context) (*Session, error) {
	if _, err := s.auth.AccessToken(ctx, false); err != nil {
		return nil, err
	}
	return s, nil
}
