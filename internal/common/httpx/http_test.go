package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/curatai/curatai/internal/common/apperrors"
)

func TestWrapHttpRsp(t *testing.T) {
	ErrConversation := apperrors.New("conversation not found").SetStatusCode(http.StatusNotFound)

	tests := []struct {
		name       string
		handler    RequestHandler
		wantStatus int
		wantBody   string
	}{
		{
			name: "json response",
			handler: func(r *http.Request) (*Response, error) {
				return &Response{StatusCode: http.StatusOK, Response: map[string]string{"response": "hi"}}, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   "response",
		},
		{
			name: "http error",
			handler: func(r *http.Request) (*Response, error) {
				return nil, ErrInvalidRequest("message is required")
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "error",
		},
		{
			name: "app error carries status",
			handler: func(r *http.Request) (*Response, error) {
				return nil, ErrConversation
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "error",
		},
		{
			name: "nil response",
			handler: func(r *http.Request) (*Response, error) {
				return nil, nil
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			WrapHttpRsp(tt.handler)(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, gjson.Get(w.Body.String(), tt.wantBody).Exists(), w.Body.String())
		})
	}
}

func TestGetRequestData(t *testing.T) {
	var req struct {
		Message string `json:"message"`
	}
	r := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
	require.NoError(t, GetRequestData(r, &req))
	assert.Equal(t, "hello", req.Message)

	r = httptest.NewRequest(http.MethodGet, "/chat", nil)
	assert.Error(t, GetRequestData(r, &req))

	r = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{`))
	assert.Error(t, GetRequestData(r, &req))
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)
	assert.False(t, rw.Written())
	assert.Equal(t, http.StatusOK, rw.Status())

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusTeapot)
	assert.True(t, rw.Written())
	assert.Equal(t, http.StatusAccepted, rw.Status())
	assert.Equal(t, http.StatusAccepted, rec.Code)

	n, err := rw.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, rw.BytesWritten())
}
