package log

import (
	"net/http"
	"time"
)

// LogHTTPRequest writes one access log line for a finished request
func LogHTTPRequest(method, path string, status int, duration time.Duration, size int, remoteAddr, userAgent string, err error) {
	fields := []interface{}{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size", size,
		"remote_addr", remoteAddr,
		"user_agent", userAgent,
	}
	if err != nil {
		Errorw("http request failed", append(fields, "error", err.Error())...)
		return
	}
	Infow("http request", fields...)
}

// ResponseRecorder wraps a ResponseWriter to capture the status code and the
// number of bytes written.
type ResponseRecorder struct {
	http.ResponseWriter
	Status int
	Size   int
}

// NewResponseRecorder wraps w, defaulting the status to 200
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.Size += n
	return n, err
}

// Middleware logs every request passing through next
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)
		next.ServeHTTP(rec, req)
		LogHTTPRequest(req.Method, req.URL.Path, rec.Status, time.Since(start), rec.Size, req.RemoteAddr, req.UserAgent(), nil)
	})
}
