// Package transport adapts engine token pairs to HTTP delivery. Browser
// clients receive httpOnly cookies; mobile clients are expected to carry
// tokens in request and response bodies, so cookie helpers no-op for them.
package transport

import (
	"net/http"
	"strings"
	"time"

	goRefresh "github.com/MrEthical07/goRefresh"
)

const (
	// ClientTypeHeader is the request header consulted by DetectClientType.
	ClientTypeHeader = "X-Client-Type"

	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// DetectClientType classifies the request by its X-Client-Type header.
// Anything other than an explicit "mobile" is treated as a browser.
func DetectClientType(r *http.Request) goRefresh.ClientType {
	if r == nil {
		return goRefresh.ClientBrowser
	}
	if strings.EqualFold(r.Header.Get(ClientTypeHeader), string(goRefresh.ClientMobile)) {
		return goRefresh.ClientMobile
	}
	return goRefresh.ClientBrowser
}

// BearerToken extracts the access token from the Authorization header,
// falling back to the access cookie for browser clients.
func BearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
			return auth[len(prefix):]
		}
	}
	if c, err := r.Cookie(accessCookieName); err == nil {
		return c.Value
	}
	return ""
}

// RefreshToken extracts the refresh token cookie, if present.
func RefreshToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		return c.Value
	}
	return ""
}

// CookieWriter sets and clears token cookies according to the engine's
// cookie and TTL configuration.
type CookieWriter struct {
	cookie     goRefresh.CookieConfig
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookieWriter describes the newcookiewriter operation and its observable behavior.
//
// NewCookieWriter may return an error when input validation, dependency calls, or security checks fail.
// NewCookieWriter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCookieWriter(cfg goRefresh.Config) *CookieWriter {
	return &CookieWriter{
		cookie:     cfg.Cookie,
		accessTTL:  cfg.JWT.AccessTTL,
		refreshTTL: cfg.JWT.RefreshTTL,
	}
}

// ApplyPair writes the pair as httpOnly cookies for browser clients.
// Mobile clients manage tokens themselves, so nothing is written.
func (w *CookieWriter) ApplyPair(rw http.ResponseWriter, clientType goRefresh.ClientType, pair *goRefresh.TokenPair) {
	if w == nil || pair == nil || clientType == goRefresh.ClientMobile {
		return
	}

	http.SetCookie(rw, w.newCookie(accessCookieName, pair.AccessToken, w.accessTTL))
	http.SetCookie(rw, w.newCookie(refreshCookieName, pair.RefreshToken, w.refreshTTL))
}

// ClearPair expires both token cookies. Safe to call for any client type;
// mobile clients simply never had the cookies.
func (w *CookieWriter) ClearPair(rw http.ResponseWriter) {
	if w == nil {
		return
	}

	access := w.newCookie(accessCookieName, "", 0)
	access.MaxAge = -1
	refresh := w.newCookie(refreshCookieName, "", 0)
	refresh.MaxAge = -1

	http.SetCookie(rw, access)
	http.SetCookie(rw, refresh)
}

func (w *CookieWriter) newCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     w.cookie.Path,
		Domain:   w.cookie.Domain,
		MaxAge:   int(ttl / time.Second),
		Secure:   w.cookie.Secure,
		HttpOnly: true,
		SameSite: w.cookie.SameSite,
	}
}
