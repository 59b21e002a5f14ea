package auth

import (
	"fmt"
	"net/http"

	"github.com/curatai/curatai/internal/common/apperrors"
)

var (
	ErrAuthentication  apperrors.Error = apperrors.New("authentication failed").SetStatusCode(http.StatusUnauthorized)
	ErrInvalidToken    apperrors.Error = ErrAuthentication.New("invalid token response")
	ErrMissingUserInfo apperrors.Error = ErrAuthentication.New("username and password are required")
)

// AuthenticationError reports a non-2xx answer from an identity endpoint.
type AuthenticationError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed at %s: %d - %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}
