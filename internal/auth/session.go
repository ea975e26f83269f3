package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions mints and verifies the stateless bearer credential. There is no
// server-side session table and no revocation: a minted credential stays
// valid until its embedded expiry, logout is client-side discard.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Sessions) TTL() time.Duration { return s.ttl }

func (s *Sessions) Mint(u *User) (string, error) {
	now := s.now()
	claims := SessionClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks signature and expiry. Tampered, malformed and expired
// credentials are all ErrInvalidSession.
func (s *Sessions) Verify(credential string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	t, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSession
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// SubjectOf extracts just the user id from a credential via Verify.
func (s *Sessions) SubjectOf(credential string) (uuid.UUID, error) {
	claims, err := s.Verify(credential)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}
	return id, nil
}
