package common

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

func GetResponseTime(init time.Time) string {
	return fmt.Sprintf("%dms", time.Since(init).Milliseconds())
}

// ClientIP is the host part of RemoteAddr. Forwarding headers are only
// honoured when the router rewrites RemoteAddr behind a trusted proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
