// Package httputil holds small HTTP helpers shared by the API server
// and the stream limiter.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the address a request originated from. With
// trustProxy set, forwarding headers win over the socket peer:
// X-Forwarded-For contributes its leftmost entry, then X-Real-IP.
// Leave trustProxy off unless a trusted reverse proxy sets those
// headers, since clients can forge them freely.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedFor(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedFor picks the originating client out of an X-Forwarded-For
// chain, where each proxy appends the peer it saw.
func forwardedFor(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}
