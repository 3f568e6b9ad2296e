package http

import (
	"net"
	"net/http"
	"strings"
)

// clientIP resolves the caller's address for rate limiting. The first hop in
// X-Forwarded-For wins when a proxy set it, otherwise the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
