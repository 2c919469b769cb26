package goRefresh

import "context"

type clientIPContextKey struct{}
type clientTypeContextKey struct{}

// ClientType distinguishes cookie-carrying browser callers from mobile
// callers that transport tokens in request and response bodies.
type ClientType string

const (
	// ClientBrowser is an exported constant or variable used by the authentication engine.
	ClientBrowser ClientType = "browser"
	// ClientMobile is an exported constant or variable used by the authentication engine.
	ClientMobile ClientType = "mobile"
)

// WithClientIP attaches the caller's IP address to ctx. The Engine records
// it on audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithClientType attaches the caller's client type to ctx. Transport
// helpers use it to decide between cookie and body token delivery.
func WithClientType(ctx context.Context, clientType ClientType) context.Context {
	return context.WithValue(ctx, clientTypeContextKey{}, clientType)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// ClientTypeFromContext reports the client type attached to ctx, defaulting
// to ClientBrowser when none was set.
func ClientTypeFromContext(ctx context.Context) ClientType {
	if ctx == nil {
		return ClientBrowser
	}

	clientType, _ := ctx.Value(clientTypeContextKey{}).(ClientType)
	if clientType == "" {
		return ClientBrowser
	}

	return clientType
}
