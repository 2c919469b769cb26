package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type tags carried in the "type" claim. A token presented for a use
// its tag does not match is treated as malformed.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrTokenExpired reports a token whose signature verified but whose
	// expiry has passed. Callers branch on this to enter grace handling.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed reports a token that failed verification for any
	// reason other than expiry: bad signature, wrong type tag, missing
	// claims, or garbage input.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrMissingSecret is returned when a signing secret was not configured.
	ErrMissingSecret = errors.New("signing secret missing")
)

// Config defines a public type used by goRefresh APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
}

// Manager signs and verifies access and refresh tokens. Access and refresh
// tokens use distinct HS256 secrets.
type Manager struct {
	config Config
}

// AccessClaims is the claim set carried by access tokens.
type AccessClaims struct {
	UID  string `json:"id"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set carried by refresh tokens. TokenFamily
// names the session the token belongs to; Version increments by one on
// every rotation within that family.
type RefreshClaims struct {
	UID         string `json:"id"`
	Type        string `json:"type"`
	TokenFamily string `json:"tokenFamily"`
	Version     int    `json:"version"`
	jwt.RegisteredClaims
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, ErrMissingSecret
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess signs a short-lived access token for the given user.
func (j *Manager) CreateAccess(uid string) (string, error) {
	if len(j.config.AccessSecret) == 0 {
		return "", ErrMissingSecret
	}

	claims := AccessClaims{
		UID:  uid,
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.AccessSecret)
}

// CreateRefresh signs a long-lived refresh token bound to a token family
// and rotation version.
func (j *Manager) CreateRefresh(uid, tokenFamily string, version int) (string, error) {
	if len(j.config.RefreshSecret) == 0 {
		return "", ErrMissingSecret
	}

	claims := RefreshClaims{
		UID:         uid,
		Type:        TypeRefresh,
		TokenFamily: tokenFamily,
		Version:     version,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.config.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.RefreshSecret)
}

// ParseAccess verifies an access token and returns its claims. Failures are
// reported as [ErrTokenExpired] or [ErrTokenMalformed].
func (j *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenStr, claims, j.config.AccessSecret); err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token and returns its claims. A verified
// token missing its family claim or carrying the wrong type tag is reported
// as [ErrTokenMalformed], matching the taxonomy callers switch on.
func (j *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenStr, claims, j.config.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh || claims.TokenFamily == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// DecodeRefreshUnverified extracts refresh claims without verifying the
// signature or expiry. Only used to recover the family id and expiry of a
// token already known to be expired; never authorizes on its own.
func (j *Manager) DecodeRefreshUnverified(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, ErrTokenMalformed
	}
	if claims.UID == "" || claims.TokenFamily == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func (j *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	if len(secret) == 0 {
		return ErrMissingSecret
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}
	if !token.Valid {
		return ErrTokenMalformed
	}
	return nil
}
