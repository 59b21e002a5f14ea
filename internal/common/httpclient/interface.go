package httpclient

import (
	"context"
)

// Requester defines the request surface the catalog tools depend on.
type Requester interface {
	// DoRequest makes an HTTP request with the given options
	DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error)

	// GetResource retrieves a resource and returns the raw body
	GetResource(ctx context.Context, path string, queryParams map[string]string) ([]byte, error)

	// CreateResource posts data to the given path
	CreateResource(ctx context.Context, path string, data []byte) ([]byte, error)

	// BaseURL returns the catalog root the client is bound to
	BaseURL() string
}

// TokenSource supplies the value of the TOKEN header for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Verify that the HTTPClient implements the Requester interface
var _ Requester = &HTTPClient{}
