package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the durable state behind the token lifecycle. All coordination
// happens here; the core keeps no mutable state in process.
type Store interface {
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	CreateUser(ctx context.Context, email string) (*User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateToken(ctx context.Context, t *AuthToken) error
	// RedeemableToken returns the newest token matching (userID, codeHash)
	// that is unused and unexpired at now, or ErrNotFound.
	RedeemableToken(ctx context.Context, userID uuid.UUID, codeHash string, now time.Time) (*AuthToken, error)
	MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	CountTokensSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	OldestTokenSince(ctx context.Context, userID uuid.UUID, since time.Time) (*AuthToken, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
