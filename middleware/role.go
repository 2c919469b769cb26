package middleware

import (
	"net/http"

	goRefresh "github.com/MrEthical07/goRefresh"
	"github.com/MrEthical07/goRefresh/transport"
)

// RequireRole returns middleware that authenticates like [Guard] and then
// requires the resolved account to hold the given role.
func RequireRole(engine *goRefresh.Engine, cookies *transport.CookieWriter, role string) func(http.Handler) http.Handler {
	guard := Guard(engine, cookies)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok || res.User.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
