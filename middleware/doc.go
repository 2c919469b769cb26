// Package middleware exposes HTTP middleware adapters for session enforcement built
// on top of goRefresh.Engine authentication.
//
// # Guards
//
//   - [Guard] — authenticates the request, rotating the refresh token when needed.
//   - [RequireRole] — [Guard] plus a role check on the resolved account.
//   - [ClientContext] — stamps client IP and client type without enforcing.
//
// Each guard reads the access token from the Authorization header or cookie, the
// refresh token from its cookie, calls Engine.Authenticate, and injects the result
// into the request context. When rotation produced a new token pair, browser
// clients receive it as replacement cookies before the wrapped handler runs.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself — all decisions are delegated to Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond what Engine.Authenticate and the
//     configured role check express.
package middleware
