package middleware

import (
	"net"
	"net/http"
	"strings"

	goRefresh "github.com/MrEthical07/goRefresh"
	"github.com/MrEthical07/goRefresh/transport"
)

// ClientContext returns middleware that stamps the client IP and client type
// into the request context without enforcing authentication. Mount it on
// unauthenticated routes (sign-up, OTP request) so audit events still carry
// request provenance.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := goRefresh.WithClientIP(r.Context(), clientIP(r))
		ctx = goRefresh.WithClientType(ctx, transport.DetectClientType(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
