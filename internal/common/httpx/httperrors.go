package httpx

import (
	"net/http"

	"github.com/curatai/curatai/internal/common/apperrors"
)

// Error is an HTTP-level failure with the status it is sent with.
type Error struct {
	Description string `json:"description"`
	StatusCode  int    `json:"http_status_code"`
	Retryable   bool   `json:"retryable,omitempty"`
}

type errorRsp struct {
	Result    int    `json:"result"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

const Failure int = 0

func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	body, err := json.Marshal(&errorRsp{
		Result:    Failure,
		Error:     e.Description,
		Retryable: e.Retryable,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Unable to parse error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	w.Write(body)
}

func (e *Error) Error() string {
	return e.Description
}

// SendError sends an application error with its status code, 500 when it
// has none. Retryable errors are flagged so clients can resend.
func SendError(w http.ResponseWriter, err apperrors.Error) {
	if err == nil {
		return
	}
	statusCode := err.StatusCode()
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	httperror := &Error{
		StatusCode:  statusCode,
		Description: err.ErrorAll(),
		Retryable:   err.Retryable(),
	}
	httperror.Send(w)
}

func newError(status int, fallback string, desc []string) *Error {
	s := fallback
	if len(desc) > 0 && desc[0] != "" {
		s = desc[0]
	}
	return &Error{Description: s, StatusCode: status}
}

func ErrReqMethodNotSupported() *Error {
	return newError(http.StatusMethodNotAllowed, "Request Method Not Supported", nil)
}

func ErrUnableToParseReqData() *Error {
	return newError(http.StatusBadRequest, "Unable to parse request", nil)
}

func ErrApplicationError(err ...string) *Error {
	return newError(http.StatusInternalServerError, "Unable to process request", err)
}

func ErrInvalidRequest(str ...string) *Error {
	return newError(http.StatusBadRequest, "empty request values or invalid request", str)
}

func ErrServiceUnavailable(str ...string) *Error {
	return newError(http.StatusServiceUnavailable, "service unavailable", str)
}
