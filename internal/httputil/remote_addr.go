package httputil

import (
	"net"
	"net/http"
	"strings"
)

// GetRemoteAddr gets the origin/client ip for a request.
//
// X-Forwarded-For wins over X-Real-IP, and the last value of either is used.
// In-process requests have no remote address and return an empty string.
func GetRemoteAddr(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, header := range []string{HeaderXForwardedFor, HeaderXRealIP} {
		if value, ok := headerLastValue(r.Header, header); ok {
			return value
		}
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}

func headerLastValue(headers http.Header, key string) (string, bool) {
	raw := headers.Get(key)
	if raw == "" {
		return "", false
	}
	if idx := strings.LastIndexByte(raw, ','); idx >= 0 {
		raw = raw[idx+1:]
	}
	return strings.TrimSpace(raw), true
}
