package family

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the pgx-backed [DurableStore] over the token_family table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore describes the newpostgresstore operation and its observable behavior.
//
// NewPostgresStore may return an error when input validation, dependency calls, or security checks fail.
// NewPostgresStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a token_family row and returns the stored record.
func (s *PostgresStore) Create(ctx context.Context, userID, familyID string) (*TokenFamily, error) {
	fam := &TokenFamily{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO token_family (user_id, family_id, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, user_id, family_id, created_at, updated_at`,
		userID, familyID,
	).Scan(&fam.ID, &fam.UserID, &fam.FamilyID, &fam.CreatedAt, &fam.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create token family: %w", err)
	}
	return fam, nil
}

// FindActive returns the family row for familyID, or [ErrNotFound].
func (s *PostgresStore) FindActive(ctx context.Context, familyID string) (*TokenFamily, error) {
	fam := &TokenFamily{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, family_id, created_at, updated_at
		FROM token_family
		WHERE family_id = $1`,
		familyID,
	).Scan(&fam.ID, &fam.UserID, &fam.FamilyID, &fam.CreatedAt, &fam.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find token family: %w", err)
	}
	return fam, nil
}

// Invalidate deletes the family row. Deleting an absent row is not an error.
func (s *PostgresStore) Invalidate(ctx context.Context, familyID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM token_family WHERE family_id = $1`, familyID); err != nil {
		return fmt.Errorf("invalidate token family: %w", err)
	}
	return nil
}

// InvalidateAllForUser deletes every family row owned by userID.
func (s *PostgresStore) InvalidateAllForUser(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM token_family WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("invalidate user token families: %w", err)
	}
	return nil
}
