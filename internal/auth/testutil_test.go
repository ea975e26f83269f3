package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeClock is a settable time source shared by the core tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeStore is an in-memory Store for tests. Setting err makes every call
// fail with it.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*User
	tokens []*AuthToken
	err    error

	tokenQueries int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*User{}}
}

func (s *fakeStore) addUser(email string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &User{ID: uuid.New(), Email: email, Active: true, CreatedAt: time.Now()}
	s.users[email] = u
	return u
}

func (s *fakeStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) CreateUser(ctx context.Context, email string) (*User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.addUser(email), nil
}

func (s *fakeStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.ID == id {
			t := at
			u.LastLogin = &t
		}
	}
	return nil
}

func (s *fakeStore) CreateToken(ctx context.Context, t *AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *t
	s.tokens = append(s.tokens, &cp)
	return nil
}

func (s *fakeStore) RedeemableToken(ctx context.Context, userID uuid.UUID, codeHash string, now time.Time) (*AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenQueries++
	if s.err != nil {
		return nil, s.err
	}
	var best *AuthToken
	for _, t := range s.tokens {
		if t.UserID != userID || t.CodeHash != codeHash {
			continue
		}
		if t.UsedAt != nil || !t.ExpiresAt.After(now) {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = t
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *fakeStore) MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, t := range s.tokens {
		if t.ID == id {
			ts := at
			t.UsedAt = &ts
		}
	}
	return nil
}

func (s *fakeStore) CountTokensSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, t := range s.tokens {
		if t.UserID == userID && !t.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) OldestTokenSince(ctx context.Context, userID uuid.UUID, since time.Time) (*AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var oldest *AuthToken
	for _, t := range s.tokens {
		if t.UserID != userID || t.CreatedAt.Before(since) {
			continue
		}
		if oldest == nil || t.CreatedAt.Before(oldest.CreatedAt) {
			oldest = t
		}
	}
	if oldest == nil {
		return nil, ErrNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (s *fakeStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	kept := s.tokens[:0]
	var n int64
	for _, t := range s.tokens {
		if t.ExpiresAt.Before(now) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	s.tokens = kept
	return n, nil
}

// fakeSender records delivered codes.
type fakeSender struct {
	mu    sync.Mutex
	sent  []string // codes in send order
	to    []string
	fail  error
	calls int
}

func (f *fakeSender) SendLoginCode(ctx context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, code)
	f.to = append(f.to, email)
	return nil
}

func (f *fakeSender) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}
