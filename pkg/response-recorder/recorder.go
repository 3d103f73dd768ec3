package recorder

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ResponseRecorder is a wrapper around http.ResponseWriter that remembers the
// status code and the number of content bytes written.
type ResponseRecorder struct {
	rw           http.ResponseWriter
	status       int
	written      int64
	wroteHeaders bool
	CreatedAt    time.Time
}

// Implementation of http.ResponseWriter
func (t *ResponseRecorder) Header() http.Header {
	return t.rw.Header()
}

// Implementation of http.ResponseWriter
func (t *ResponseRecorder) WriteHeader(statusCode int) {
	// informational responses are followed by the real one
	if statusCode >= 100 && statusCode < 200 {
		t.rw.WriteHeader(statusCode)
		return
	}
	if t.wroteHeaders {
		return
	}
	t.wroteHeaders = true
	t.status = statusCode
	t.rw.WriteHeader(statusCode)
}

// Implementation of http.ResponseWriter
func (t *ResponseRecorder) Write(b []byte) (int, error) {
	// write headers if not already written
	if !t.wroteHeaders {
		t.WriteHeader(http.StatusOK)
	}
	n, err := t.rw.Write(b)
	t.written += int64(n)
	return n, err
}

// Unwrap returns the underlying http.ResponseWriter for http.ResponseController.
func (t *ResponseRecorder) Unwrap() http.ResponseWriter {
	return t.rw
}

// StatusCode returns the status code of the response.
func (t *ResponseRecorder) StatusCode() int {
	if !t.wroteHeaders {
		return http.StatusOK
	}
	return t.status
}

// BytesWritten returns the number of content bytes written.
func (t *ResponseRecorder) BytesWritten() int64 {
	return t.written
}

// NewResponseRecorder returns a new ResponseRecorder writing to w.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{
		CreatedAt: time.Now(),
		rw:        w,
	}
}

// AccessLog is a middleware logging every request to logger at debug level,
// or at warn level for server errors.
func AccessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := NewResponseRecorder(w)
			next.ServeHTTP(rec, r)

			event := logger.Debug()
			if rec.StatusCode() >= 500 {
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote", r.RemoteAddr).
				Int("status", rec.StatusCode()).
				Int64("bytes", rec.BytesWritten()).
				Dur("duration", time.Since(rec.CreatedAt)).
				Msg("Served")
		})
	}
}
