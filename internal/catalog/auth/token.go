package auth

import (
	"strings"
	"time"
)

// RefreshToken is minted once from username and password and reused to
// mint access tokens for the life of the process.
type RefreshToken struct {
	Token  string `json:"refresh_token" validate:"required"`
	UserID int    `json:"user_id" validate:"required"`
}

// AccessToken mirrors the catalog's access token response.
type AccessToken struct {
	APIAccessToken string `json:"api_access_token" validate:"required"`
	UserID         int    `json:"user_id"`
	CreatedAt      string `json:"created_at"`
	TokenExpiresAt string `json:"token_expires_at" validate:"required"`
	TokenStatus    string `json:"token_status"`
}

// naive timestamps carry no offset and are read as UTC
const naiveLayout = "2006-01-02T15:04:05.999999999"

// ExpiresAt parses TokenExpiresAt. A trailing Z is normalized to +00:00.
func (t *AccessToken) ExpiresAt() (time.Time, error) {
	return parseTimestamp(t.TokenExpiresAt)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return ts, nil
	}
	if naive, nerr := time.ParseInLocation(naiveLayout, s, time.UTC); nerr == nil {
		return naive, nil
	}
	return time.Time{}, err
}

// ValidAt reports whether the token can be used at now. Expiry is
// authoritative over TokenStatus.
func (t *AccessToken) ValidAt(now time.Time) (bool, error) {
	if t == nil || t.APIAccessToken == "" {
		return false, nil
	}
	exp, err := t.ExpiresAt()
	if err != nil {
		return false, err
	}
	return now.Before(exp), nil
}
