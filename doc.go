// Package goRefresh provides a session engine built on rotating JWT refresh
// tokens grouped into token families. Each login starts a family; every
// rotation stays inside it, and revoking the family kills every token that
// names it, no matter how recently one was minted.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goRefresh is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (AuthResult, TokenPair, MetricsSnapshot, etc.). Token
// signing, family persistence, and replay caching live in the jwt, family,
// and replay subpackages; callers normally only touch them to wire a custom
// durable store.
//
// # Liveness model
//
// A refresh token is live if and only if its family row still exists. The
// version claim inside the token is diagnostic: it records how many
// rotations the session has seen but is never compared against stored state,
// so an out-of-order retry is resolved by the replay cache rather than
// rejected outright.
//
// # Performance contract
//
// Authenticate with a valid access token completes without any store
// round-trips. The rotation path is allowed one family lookup, one replay
// cache read, and one replay cache write per call.
package goRefresh
