// Package httputil holds small HTTP request helpers shared by the API
// middleware.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address of a request. With
// trustProxy set, proxy headers win: the leftmost X-Forwarded-For
// entry, then X-Real-IP. Enable trustProxy only behind a reverse proxy
// that overwrites these headers, since clients can forge them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedClient(r.Header); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func forwardedClient(h http.Header) string {
	xff := h.Get("X-Forwarded-For")
	if first, _, found := strings.Cut(xff, ","); found {
		xff = first
	}
	if ip := strings.TrimSpace(xff); ip != "" {
		return ip
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}
