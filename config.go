package goRefresh

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by goRefresh APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT     JWTConfig
	Family  FamilyConfig
	Replay  ReplayConfig
	OTP     OTPConfig
	Cookie  CookieConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by goRefresh APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
FAMILY CONFIG
====================================
*/

// FamilyConfig defines a public type used by goRefresh APIs.
//
// FamilyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FamilyConfig struct {
	RedisPrefix string
	CacheTTL    time.Duration
	GracePeriod time.Duration
}

// ReplayConfig defines a public type used by goRefresh APIs.
//
// ReplayConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ReplayConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

// OTPConfig defines a public type used by goRefresh APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Digits      int
	TTL         time.Duration
	MaxRetries  int
	RetryWindow time.Duration
}

// CookieConfig controls browser-transport cookie attributes. Secure and
// SameSite=None are expected together in production deployments.
type CookieConfig struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// AuditConfig defines a public type used by goRefresh APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goRefresh APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Secrets are left empty
// and must be supplied by the caller before [Builder.Build].
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 14 * 24 * time.Hour,
		},
		Family: FamilyConfig{
			RedisPrefix: "token_family",
			CacheTTL:    time.Hour,
			GracePeriod: 30 * 24 * time.Hour,
		},
		Replay: ReplayConfig{
			RedisPrefix: "used_token",
			TTL:         5 * time.Minute,
		},
		OTP: OTPConfig{
			Digits:      4,
			TTL:         5 * time.Minute,
			MaxRetries:  5,
			RetryWindow: time.Hour,
		},
		Cookie: CookieConfig{
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return errors.New("JWT AccessTTL must be shorter than RefreshTTL")
	}
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret is required")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret is required")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Family
	if c.Family.RedisPrefix == "" {
		return errors.New("Family RedisPrefix is required")
	}
	if c.Family.CacheTTL <= 0 {
		return errors.New("Family CacheTTL must be > 0")
	}
	if c.Family.GracePeriod <= 0 {
		return errors.New("Family GracePeriod must be > 0")
	}

	// Replay
	if c.Replay.RedisPrefix == "" {
		return errors.New("Replay RedisPrefix is required")
	}
	if c.Replay.RedisPrefix == c.Family.RedisPrefix {
		return errors.New("Replay RedisPrefix must differ from Family RedisPrefix")
	}
	if c.Replay.TTL <= 0 {
		return errors.New("Replay TTL must be > 0")
	}

	// OTP
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.MaxRetries <= 0 {
		return errors.New("OTP MaxRetries must be > 0")
	}
	if c.OTP.RetryWindow <= 0 {
		return errors.New("OTP RetryWindow must be > 0")
	}

	// Cookie
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
