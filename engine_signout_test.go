package goRefresh

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSignOutRevokesSession(t *testing.T) {
	te := buildTestEngine(t, nil)
	user := te.seedUser(t)
	ctx := context.Background()

	pair, err := te.engine.GenerateTokenPair(ctx, user.UserID, "", 1)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	if err := te.engine.SignOut(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	if _, err := te.engine.Authenticate(ctx, "", pair.RefreshToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestSignOutWithExpiredToken(t *testing.T) {
	te := buildTestEngine(t, nil)
	user := te.seedUser(t)
	ctx := context.Background()

	if _, err := te.durable.Create(ctx, user.UserID, "family-stale"); err != nil {
		t.Fatalf("seed family: %v", err)
	}
	expired := signRefresh(t, user.UserID, "family-stale", 1, time.Now().Add(-time.Hour))

	// Sign-out works on expired tokens: the family id is read unverified.
	if err := te.engine.SignOut(ctx, expired); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if te.durable.has("family-stale") {
		t.Fatal("family must be invalidated")
	}
}

func TestSignOutToleratesBadTokens(t *testing.T) {
	te := buildTestEngine(t, nil)
	ctx := context.Background()

	if err := te.engine.SignOut(ctx, ""); err != nil {
		t.Fatalf("empty token: %v", err)
	}
	if err := te.engine.SignOut(ctx, "not-a-token"); err != nil {
		t.Fatalf("garbage token: %v", err)
	}
}

// TestSessionLifecycle walks a session from sign-up to revocation:
// OTP login mints family F1 at version 1, a refresh rotates it to
// version 2 inside the same family, and sign-out kills the family so
// the rotated token stops working.
func TestSessionLifecycle(t *testing.T) {
	te := buildTestEngine(t, nil)
	ctx := context.Background()

	if _, err := te.engine.SignUp(ctx, SignUpRequest{Email: "lifecycle@example.com"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	code, err := te.engine.RequestOTP(ctx, "lifecycle@example.com")
	if err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	_, pair, err := te.engine.VerifyOTP(ctx, "lifecycle@example.com", code)
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if pair.Version != 1 {
		t.Fatalf("login pair version = %d, want 1", pair.Version)
	}
	if !te.durable.has(pair.TokenFamily) {
		t.Fatal("login must persist the token family")
	}

	rotated, err := te.engine.Authenticate(ctx, "", pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotation: %v", err)
	}
	if rotated.Pair.Version != 2 || rotated.Pair.TokenFamily != pair.TokenFamily {
		t.Fatalf("rotation produced family %s v%d, want %s v2",
			rotated.Pair.TokenFamily, rotated.Pair.Version, pair.TokenFamily)
	}

	if err := te.engine.SignOut(ctx, rotated.Pair.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if te.durable.has(pair.TokenFamily) {
		t.Fatal("sign-out must remove the family")
	}
	if _, err := te.engine.Authenticate(ctx, "", rotated.Pair.RefreshToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("post-signout refresh: expected ErrSessionRevoked, got %v", err)
	}
}

func TestSignOutAllRevokesEverySession(t *testing.T) {
	te := buildTestEngine(t, nil)
	user := te.seedUser(t)
	ctx := context.Background()

	first, err := te.engine.GenerateTokenPair(ctx, user.UserID, "", 1)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := te.engine.GenerateTokenPair(ctx, user.UserID, "", 1)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := te.engine.SignOutAll(ctx, user.UserID); err != nil {
		t.Fatalf("SignOutAll: %v", err)
	}

	for name, token := range map[string]string{"first": first.RefreshToken, "second": second.RefreshToken} {
		if _, err := te.engine.Authenticate(ctx, "", token); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("%s: expected ErrSessionRevoked, got %v", name, err)
		}
	}
}
