package family

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no active family exists for a family id.
var ErrNotFound = errors.New("token family not found")

// ErrRedisUnavailable is an exported constant or variable used by the authentication engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// TokenFamily represents one continuous login session. Its existence is the
// sole liveness signal for refresh tokens that name it; the rotation version
// lives only inside the tokens themselves.
type TokenFamily struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FamilyID  string    `json:"familyId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DurableStore is the persistent source of truth for token families.
// [PostgresStore] is the production implementation.
type DurableStore interface {
	Create(ctx context.Context, userID, familyID string) (*TokenFamily, error)
	FindActive(ctx context.Context, familyID string) (*TokenFamily, error)
	Invalidate(ctx context.Context, familyID string) error
	InvalidateAllForUser(ctx context.Context, userID string) error
}
