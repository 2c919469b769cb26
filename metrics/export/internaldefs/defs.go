package internaldefs

import (
	goRefresh "github.com/MrEthical07/goRefresh"
)

// CounterDef defines a public type used by goRefresh APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goRefresh.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goRefresh APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goRefresh.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: goRefresh.MetricTokenPairIssued, Name: "gorefresh_token_pair_issued_total", Help: "Issued access/refresh token pairs."},
	{ID: goRefresh.MetricFamilyCreated, Name: "gorefresh_family_created_total", Help: "Created token families."},
	{ID: goRefresh.MetricAccessAccepted, Name: "gorefresh_access_accepted_total", Help: "Requests authenticated by a valid access token."},
	{ID: goRefresh.MetricAuthFailure, Name: "gorefresh_auth_failure_total", Help: "Authentication attempts rejected before the refresh path."},
	{ID: goRefresh.MetricRotationSuccess, Name: "gorefresh_rotation_success_total", Help: "Successful refresh token rotations."},
	{ID: goRefresh.MetricRotationReplayed, Name: "gorefresh_rotation_replayed_total", Help: "Rotations resolved through the replay cache."},
	{ID: goRefresh.MetricRotationFailure, Name: "gorefresh_rotation_failure_total", Help: "Failed refresh token rotations."},
	{ID: goRefresh.MetricGraceRenewal, Name: "gorefresh_grace_renewal_total", Help: "Sessions renewed inside the expiry grace window."},
	{ID: goRefresh.MetricGraceExpired, Name: "gorefresh_grace_expired_total", Help: "Sessions rejected beyond the expiry grace window."},
	{ID: goRefresh.MetricSessionRevoked, Name: "gorefresh_session_revoked_total", Help: "Token family revocations."},
	{ID: goRefresh.MetricSignOut, Name: "gorefresh_signout_total", Help: "Single-session sign-out operations."},
	{ID: goRefresh.MetricSignOutAll, Name: "gorefresh_signout_all_total", Help: "Sign-out-all operations."},
	{ID: goRefresh.MetricSignUpSuccess, Name: "gorefresh_signup_success_total", Help: "Successful account sign-ups."},
	{ID: goRefresh.MetricSignUpDuplicate, Name: "gorefresh_signup_duplicate_total", Help: "Sign-up attempts rejected as duplicate."},
	{ID: goRefresh.MetricOTPRequested, Name: "gorefresh_otp_requested_total", Help: "Issued one-time codes."},
	{ID: goRefresh.MetricOTPVerified, Name: "gorefresh_otp_verified_total", Help: "Successful one-time code verifications."},
	{ID: goRefresh.MetricOTPFailure, Name: "gorefresh_otp_failure_total", Help: "Failed one-time code operations."},
	{ID: goRefresh.MetricOTPRateLimited, Name: "gorefresh_otp_rate_limited_total", Help: "One-time code requests rejected by the retry cap."},
	{ID: goRefresh.MetricOAuthLogin, Name: "gorefresh_oauth_login_total", Help: "Successful provider logins."},
}

// HistogramDefs is an exported constant or variable used by the authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: goRefresh.MetricAuthenticateLatency, Name: "gorefresh_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authentication engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the authentication engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
