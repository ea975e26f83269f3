package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardian/internal/mail"

	"go.uber.org/zap"
)

// Sender delivers a login code. Its outcome is treated as opaque: delivery
// failure must never change the outward result of a code request.
type Sender interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

// Service sequences the token engine, rate limiter and session issuer per
// request.
type Service struct {
	store     Store
	engine    *Engine
	limiter   *Limiter
	sessions  *Sessions
	sender    Sender
	whitelist bool
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store Store, engine *Engine, limiter *Limiter, sessions *Sessions, sender Sender, whitelist bool, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		limiter:   limiter,
		sessions:  sessions,
		sender:    sender,
		whitelist: whitelist,
		log:       log,
		now:       time.Now,
	}
}

// RequestCode issues and delivers a login code for email. Apart from
// throttling, input validation and whitelist rejection, the outcome is
// uniform: internal failures are logged and reported as success so the
// response never reveals whether the account exists.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return ErrBadEmail
	}
	masked := mail.MaskEmail(email)

	decision, err := s.limiter.Check(ctx, email)
	if err != nil {
		// Fail closed: no code gets issued, but the response stays uniform.
		s.log.Error("rate limit check failed", zap.String("email", masked), zap.Error(err))
		return nil
	}
	if !decision.Allowed {
		return &RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	user, err := s.store.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		if s.whitelist {
			s.log.Warn("whitelist rejection", zap.String("email", masked))
			return ErrEmailNotAllowed
		}
		user, err = s.store.CreateUser(ctx, email)
		if err != nil {
			s.log.Error("user creation failed", zap.String("email", masked), zap.Error(err))
			return nil
		}
		s.log.Info("user created", zap.String("user_id", user.ID.String()))
	case err != nil:
		s.log.Error("user lookup failed", zap.String("email", masked), zap.Error(err))
		return nil
	}

	code, err := s.engine.GenerateCode()
	if err != nil {
		s.log.Error("code generation failed", zap.Error(err))
		return nil
	}
	if _, err := s.engine.Issue(ctx, user.ID, code); err != nil {
		s.log.Error("token issue failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil
	}

	if err := s.sender.SendLoginCode(ctx, user.Email, code); err != nil {
		s.log.Error("code delivery failed", zap.String("email", masked), zap.Error(err))
	}
	return nil
}

// RedeemCode exchanges a valid code for a session credential. All
// authentication failures collapse into ErrInvalidCode.
func (s *Service) RedeemCode(ctx context.Context, email, code string) (string, *User, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return "", nil, ErrBadEmail
	}

	user, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		s.log.Info("redeem for unknown email", zap.String("email", mail.MaskEmail(email)))
		return "", nil, ErrInvalidCode
	}
	if err != nil {
		return "", nil, fmt.Errorf("redeem lookup: %w", err)
	}

	token, err := s.engine.Redeem(ctx, user.ID, code)
	if err != nil {
		return "", nil, err
	}
	if err := s.engine.MarkUsed(ctx, token); err != nil {
		return "", nil, err
	}

	if err := s.store.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.log.Error("last login update failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	credential, err := s.sessions.Mint(user)
	if err != nil {
		return "", nil, fmt.Errorf("mint session: %w", err)
	}
	s.log.Info("session minted", zap.String("user_id", user.ID.String()))
	return credential, user, nil
}

// VerifyBearer resolves a session credential to its active user. Any
// failure is ErrInvalidSession.
func (s *Service) VerifyBearer(ctx context.Context, credential string) (*User, error) {
	id, err := s.sessions.SubjectOf(credential)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if !user.Active {
		return nil, ErrInvalidSession
	}
	return user, nil
}

// Refresh mints a fresh credential for an already authenticated user. The
// old one stays valid until its own expiry.
func (s *Service) Refresh(user *User) (string, error) {
	return s.sessions.Mint(user)
}
