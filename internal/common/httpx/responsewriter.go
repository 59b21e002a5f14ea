package httpx

import (
	"net/http"
)

// ResponseWriter records the status and body size of a response so they can
// be logged once the handler returns. The first status written wins.
type ResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.status != 0 {
		return
	}
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Written reports whether the status line has been sent.
func (rw *ResponseWriter) Written() bool {
	return rw.status != 0
}

// Status is the status sent, or 200 when the handler wrote nothing.
func (rw *ResponseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *ResponseWriter) BytesWritten() int {
	return rw.bytes
}

// Flush lets streamed chat replies reach the client line by line.
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
