package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the host part of the connection's peer address. Forwarding
// headers are never consulted here: behind a trusted proxy the router rewrites
// RemoteAddr first (TRUST_PROXY), otherwise they are client-controlled.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
