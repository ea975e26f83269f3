package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Limiter bounds code requests per email over a trailing window by
// counting the tokens already issued in it. The check is read-only: the
// subsequent Issue is what moves the count. Check and Issue are not
// wrapped in one transaction, so a concurrent burst can land limit+1
// tokens; wrapping both in a transaction with a row lock on the user
// would close that gap if ever needed.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewLimiter(store Store, limit int, window time.Duration, log *zap.Logger) *Limiter {
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		log:    log,
		now:    time.Now,
	}
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Check resolves the email to a user and counts tokens created inside the
// window. An email with no user yet has no history and is always allowed.
// Store failures fail closed.
func (l *Limiter) Check(ctx context.Context, email string) (Decision, error) {
	email = NormalizeEmail(email)
	now := l.now()
	windowStart := now.Add(-l.window)

	user, err := l.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Decision{Allowed: true, Remaining: l.limit - 1}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit lookup: %w", err)
	}

	count, err := l.store.CountTokensSince(ctx, user.ID, windowStart)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit count: %w", err)
	}

	if count >= int64(l.limit) {
		retryAfter := l.window
		oldest, err := l.store.OldestTokenSince(ctx, user.ID, windowStart)
		if err == nil {
			retryAfter = oldest.CreatedAt.Add(l.window).Sub(now)
		} else if !errors.Is(err, ErrNotFound) {
			return Decision{}, fmt.Errorf("rate limit oldest: %w", err)
		}
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		l.log.Warn("rate limit exceeded",
			zap.String("user_id", user.ID.String()),
			zap.Int64("requests", count),
		)
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	// Account for the token about to be issued.
	return Decision{Allowed: true, Remaining: l.limit - int(count) - 1}, nil
}
