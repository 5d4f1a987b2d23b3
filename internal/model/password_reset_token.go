package model

import (
	"time"

	"gorm.io/gorm"
)

// PasswordResetToken is a single-use token letting a user set a new
// password. Lifetime is much shorter than an invite's: resets are
// account-takeover adjacent, so the trust window is one hour.
type PasswordResetToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Email     string     `json:"email" gorm:"type:varchar(100);index;not null"`
	Token     string     `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// BeforeCreate hook will be called before creating a new PasswordResetToken record
func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.Token == "" {
		t.Token = generateSecureToken()
	}
	return nil
}

// IsExpired determines whether the token has expired.
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsUsed indicates whether the token has already been consumed.
func (t *PasswordResetToken) IsUsed() bool {
	return t.UsedAt != nil
}
