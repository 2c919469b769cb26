package goRefresh

import (
	"context"
	"time"
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus uint8

const (
	// AccountActive is an exported constant or variable used by the authentication engine.
	AccountActive AccountStatus = iota
	// AccountSuspended is an exported constant or variable used by the authentication engine.
	AccountSuspended
	// AccountDeleted is an exported constant or variable used by the authentication engine.
	AccountDeleted
)

// AuthProvider tags how an account authenticates.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// Roles carried on user records. Only coarse role tagging flows through the
// engine; it performs no authorization itself.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserRecord is the account record exchanged with the [UserDirectory].
// OTP state lives on the record, mirroring the row layout of the backing
// users table.
type UserRecord struct {
	UserID               string
	Email                string
	Phone                string
	FirstName            string
	LastName             string
	Role                 string
	AuthProvider         string
	Status               AccountStatus
	RegistrationComplete bool

	OTP                 string
	OTPExpiresAt        time.Time
	OTPRetries          int
	OTPRetryWindowStart time.Time

	LastLoginAt time.Time
}

// CreateUserInput is the input for [UserDirectory.CreateUser].
type CreateUserInput struct {
	Email                string
	Phone                string
	FirstName            string
	LastName             string
	Role                 string
	AuthProvider         string
	RegistrationComplete bool
}

// UserUpdate is a partial update for [UserDirectory.UpdateUser]. Nil fields
// are left untouched.
type UserUpdate struct {
	FirstName            *string
	LastName             *string
	RegistrationComplete *bool
	AuthProvider         *string

	OTP                 *string
	OTPExpiresAt        *time.Time
	OTPRetries          *int
	OTPRetryWindowStart *time.Time

	LastLoginAt *time.Time
}

// UserDirectory is the interface callers must implement to integrate the
// engine with their user database. Lookup methods return [ErrUserNotFound]
// when no matching account exists.
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByPhone(ctx context.Context, phone string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdateUser(ctx context.Context, userID string, update UserUpdate) (UserRecord, error)
}

// Identity is the profile an [IdentityProvider] resolves from an OAuth
// authorization code.
type Identity struct {
	Email      string
	GivenName  string
	FamilyName string
	ProviderID string
}

// IdentityProvider exchanges an OAuth authorization code for a verified
// identity. The code-for-token exchange itself happens outside the engine.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (Identity, error)
}

// TokenPair is a freshly issued access/refresh token pair bound to a
// token family.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenFamily  string
	Version      int
}

// AuthResult is returned by [Engine.Authenticate]. Pair is non-nil exactly
// when Rotated is true.
type AuthResult struct {
	User    UserRecord
	Pair    *TokenPair
	Rotated bool
}

// SignUpRequest is the input for [Engine.SignUp]. Email or Phone is
// required; Role defaults to [RoleUser] when empty.
type SignUpRequest struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Role      string
}
