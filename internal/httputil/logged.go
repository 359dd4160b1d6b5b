package httputil

import (
	"log/slog"
	"net/http"
	"time"
)

// Logged wraps an input handler with request logging at [slog.LevelDebug] level.
//
// A nil logger uses [slog.Default].
func Logged(log *slog.Logger, h http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return &logged{
		log:  log,
		next: h,
	}
}

type logged struct {
	log  *slog.Logger
	next http.Handler
}

func (l logged) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	start := time.Now()
	srw := NewResponseWriter(rw)
	l.next.ServeHTTP(srw, req)
	attributes := []any{
		slog.String("verb", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("user_agent", req.UserAgent()),
		slog.String("remote_addr", GetRemoteAddr(req)),
		slog.Int("status_code", srw.StatusCode()),
		slog.Int("content_length", srw.ContentLength()),
		slog.Duration("elapsed", time.Since(start)),
	}
	if target := req.Header.Get(HeaderAmzTarget); target != "" {
		attributes = append(attributes, slog.String("method", target))
	}
	l.log.Debug("http-request", attributes...)
}
