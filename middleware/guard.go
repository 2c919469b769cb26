package middleware

import (
	"context"
	"net/http"

	goRefresh "github.com/MrEthical07/goRefresh"
	"github.com/MrEthical07/goRefresh/transport"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the authentication result a [Guard] stored for
// the current request.
func AuthResultFromContext(ctx context.Context) (*goRefresh.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*goRefresh.AuthResult)
	return res, ok
}

// Guard returns middleware that authenticates every request through the engine.
// A rotated token pair is written back as cookies for browser clients before the
// wrapped handler runs; mobile handlers read the pair from the stored
// [goRefresh.AuthResult] instead.
func Guard(engine *goRefresh.Engine, cookies *transport.CookieWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			clientType := transport.DetectClientType(r)
			ctx := goRefresh.WithClientIP(r.Context(), clientIP(r))
			ctx = goRefresh.WithClientType(ctx, clientType)

			res, err := engine.Authenticate(ctx, transport.BearerToken(r), transport.RefreshToken(r))
			if err != nil {
				app := goRefresh.Describe(err)
				http.Error(w, app.Message, app.Status)
				return
			}

			if res.Rotated && cookies != nil {
				cookies.ApplyPair(w, clientType, res.Pair)
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
