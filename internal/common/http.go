package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the visitor address recorded on the request, or "" when it is
// not a valid IP. The router runs chi's RealIP first, so RemoteAddr already
// reflects the trusted proxy headers.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return ""
}
