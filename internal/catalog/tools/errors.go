package tools

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/curatai/curatai/internal/common/apperrors"
	"github.com/curatai/curatai/internal/common/httpclient"
)

var (
	ErrToolValidation apperrors.Error = apperrors.New("invalid tool arguments").SetStatusCode(http.StatusBadRequest)
	// ErrLimitExceeded asks the caller to retry with a smaller limit.
	ErrLimitExceeded apperrors.Error = ErrToolValidation.New("Limit can be no more than 100.").SetRetryable(true)
)

const MaxSearchLimit = 100

// failure renders a catalog error as text the assistant can relay. HTTP
// errors keep their status and body.
func failure(prefix string, err error) string {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("%s: %d - %s", prefix, httpErr.StatusCode, httpErr.Message)
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}

func isNotFound(err error) bool {
	var httpErr *httpclient.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
