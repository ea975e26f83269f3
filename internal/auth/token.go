package auth

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken is one issued login code. Only the SHA-256 hex digest of the
// code is stored; used_at stays NULL until the code is redeemed.
type AuthToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	CodeHash  string    `gorm:"type:char(64);index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time `gorm:"not null;default:now()"`
}
