// clientinfo.go extracts client network context from proxy-forwarded request
// headers. Header values are attributed, not verified: anything here can be
// forged by a client that does not sit behind the trusted proxy chain, so
// these values are recorded for investigation, never used for authorization.
package audit

import (
	"net/http"
	"strings"
)

// ClientIP returns the client IP for a request, honouring proxy headers in
// priority order: CF-Connecting-IP, then X-Real-IP, then the first entry of
// X-Forwarded-For. An empty string means no header carried a usable value.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// X-Forwarded-For is a comma-separated chain; the first hop is the
		// original client.
		first := fwd
		if idx := strings.Index(fwd, ","); idx >= 0 {
			first = fwd[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return ""
}

// UserAgent returns the request's User-Agent header, empty if absent.
func UserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}
