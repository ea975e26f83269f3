package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore implements Store on a relational database through gorm.
type GormStore struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}

func (s *GormStore) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &u, nil
}

func (s *GormStore) CreateUser(ctx context.Context, email string) (*User, error) {
	u := User{
		ID:     uuid.New(),
		Email:  email,
		Active: true,
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *GormStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (s *GormStore) CreateToken(ctx context.Context, t *AuthToken) error {
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

func (s *GormStore) RedeemableToken(ctx context.Context, userID uuid.UUID, codeHash string, now time.Time) (*AuthToken, error) {
	var t AuthToken
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND code_hash = ? AND used_at IS NULL AND expires_at > ?", userID, codeHash, now).
		Order("created_at DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redeemable token: %w", err)
	}
	return &t, nil
}

func (s *GormStore) MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.DB.WithContext(ctx).
		Model(&AuthToken{}).
		Where("id = ?", id).
		Update("used_at", at).Error
}

func (s *GormStore) CountTokensSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&AuthToken{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}

func (s *GormStore) OldestTokenSince(ctx context.Context, userID uuid.UUID, since time.Time) (*AuthToken, error) {
	var t AuthToken
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("oldest token: %w", err)
	}
	return &t, nil
}

func (s *GormStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&AuthToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
