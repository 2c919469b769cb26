package goRefresh

import (
	"context"
	"errors"
	"testing"
)

type fakeIdentityProvider struct {
	identity Identity
	err      error
}

func (p *fakeIdentityProvider) Exchange(context.Context, string) (Identity, error) {
	if p.err != nil {
		return Identity{}, p.err
	}
	return p.identity, nil
}

func buildOAuthEngine(t *testing.T, provider IdentityProvider) *testEngine {
	t.Helper()
	te := buildTestEngine(t, nil)

	// Rebuild with the provider wired in; the builder is single-use.
	engine, err := New().
		WithConfig(te.engine.config).
		WithRedis(redisClientFor(t, te.redis.Addr())).
		WithFamilyStore(te.durable).
		WithUserDirectory(te.dir).
		WithIdentityProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	te.engine = engine
	return te
}

func TestGoogleLoginCreatesAccount(t *testing.T) {
	te := buildOAuthEngine(t, &fakeIdentityProvider{identity: Identity{
		Email:      "Alan@Example.com",
		GivenName:  "Alan",
		FamilyName: "Turing",
		ProviderID: "google-123",
	}})
	ctx := context.Background()

	user, pair, err := te.engine.LoginWithGoogle(ctx, "auth-code")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if user.Email != "alan@example.com" {
		t.Fatalf("email must be normalized: %s", user.Email)
	}
	if user.AuthProvider != ProviderGoogle {
		t.Fatalf("wrong provider: %s", user.AuthProvider)
	}
	if !user.RegistrationComplete {
		t.Fatal("provider accounts are registration-complete")
	}
	if pair == nil || pair.Version != 1 {
		t.Fatalf("expected a version-1 pair, got %+v", pair)
	}

	result, err := te.engine.Authenticate(ctx, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.User.UserID != user.UserID {
		t.Fatalf("wrong user: %s", result.User.UserID)
	}
}

func TestGoogleLoginLinksExistingAccount(t *testing.T) {
	te := buildOAuthEngine(t, &fakeIdentityProvider{identity: Identity{
		Email:      "linked@example.com",
		GivenName:  "Linky",
		FamilyName: "McLink",
	}})
	ctx := context.Background()

	existing, err := te.engine.SignUp(ctx, SignUpRequest{Email: "linked@example.com"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	user, _, err := te.engine.LoginWithGoogle(ctx, "auth-code")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if user.UserID != existing.UserID {
		t.Fatal("login must reuse the existing account")
	}
	if user.AuthProvider != ProviderGoogle {
		t.Fatal("provider label must switch to google")
	}
	if user.FirstName != "Linky" {
		t.Fatal("missing profile fields must be filled from the identity")
	}
	if user.LastLoginAt.IsZero() {
		t.Fatal("login must stamp LastLoginAt")
	}
}

func TestGoogleLoginGatesAccounts(t *testing.T) {
	te := buildOAuthEngine(t, &fakeIdentityProvider{identity: Identity{
		Email: "suspended@example.com",
	}})
	ctx := context.Background()

	user, err := te.engine.SignUp(ctx, SignUpRequest{Email: "suspended@example.com"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	te.dir.setStatus(user.UserID, AccountSuspended)

	if _, _, err := te.engine.LoginWithGoogle(ctx, "auth-code"); !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended, got %v", err)
	}
}

func TestGoogleLoginProviderFailures(t *testing.T) {
	te := buildOAuthEngine(t, &fakeIdentityProvider{err: errors.New("exchange failed")})

	if _, _, err := te.engine.LoginWithGoogle(context.Background(), "bad-code"); !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}

	// An identity without an email claim is unusable.
	te2 := buildOAuthEngine(t, &fakeIdentityProvider{identity: Identity{ProviderID: "opaque"}})
	if _, _, err := te2.engine.LoginWithGoogle(context.Background(), "auth-code"); !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
}

func TestGoogleLoginWithoutProvider(t *testing.T) {
	te := buildTestEngine(t, nil)

	if _, _, err := te.engine.LoginWithGoogle(context.Background(), "auth-code"); !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
}
