package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine owns the one-time-code lifecycle: generation, hashed storage,
// at-most-once redemption and expiry sweeps.
type Engine struct {
	store      Store
	codeLength int
	codeExpiry time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewEngine(store Store, codeLength int, codeExpiry time.Duration, log *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		codeLength: codeLength,
		codeExpiry: codeExpiry,
		log:        log,
		now:        time.Now,
	}
}

func (e *Engine) GenerateCode() (string, error) {
	return GenerateCode(e.codeLength)
}

// Issue stores a hashed token for userID expiring codeExpiry from now.
// Codes are not unique across records; validation is scoped by
// (user_id, hash).
func (e *Engine) Issue(ctx context.Context, userID uuid.UUID, code string) (*AuthToken, error) {
	if !ValidCode(code, e.codeLength) {
		return nil, ErrBadCode
	}
	now := e.now()
	t := &AuthToken{
		ID:        uuid.New(),
		UserID:    userID,
		CodeHash:  HashCode(code),
		ExpiresAt: now.Add(e.codeExpiry),
		CreatedAt: now,
	}
	if err := e.store.CreateToken(ctx, t); err != nil {
		return nil, err
	}
	e.log.Info("token issued", zap.String("user_id", userID.String()), zap.String("token_id", t.ID.String()))
	return t, nil
}

// Redeem finds the unused, unexpired token matching the code. Wrong,
// expired and already-used codes all come back as ErrInvalidCode; store
// failures fail closed.
func (e *Engine) Redeem(ctx context.Context, userID uuid.UUID, code string) (*AuthToken, error) {
	if !ValidCode(code, e.codeLength) {
		return nil, ErrBadCode
	}
	t, err := e.store.RedeemableToken(ctx, userID, HashCode(code), e.now())
	if errors.Is(err, ErrNotFound) {
		e.log.Info("redeem miss", zap.String("user_id", userID.String()))
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("redeem: %w", err)
	}
	return t, nil
}

// MarkUsed stamps used_at. A second redeem of the same token already
// fails on the used_at filter, so overwriting here is harmless.
func (e *Engine) MarkUsed(ctx context.Context, t *AuthToken) error {
	at := e.now()
	if err := e.store.MarkTokenUsed(ctx, t.ID, at); err != nil {
		return fmt.Errorf("mark used: %w", err)
	}
	t.UsedAt = &at
	return nil
}

// ReapExpired deletes every token past expiry, used or not, and returns
// the count. Safe to run concurrently and repeatedly.
func (e *Engine) ReapExpired(ctx context.Context) (int64, error) {
	n, err := e.store.DeleteExpiredTokens(ctx, e.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Info("expired tokens reaped", zap.Int64("count", n))
	}
	return n, nil
}
