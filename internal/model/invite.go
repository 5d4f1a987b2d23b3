package model

import (
	"time"

	"gorm.io/gorm"
)

// Invite is a time-boxed, single-use token binding an email address to a
// vacant unit. Creating a new invite for a unit expires any previous
// unused invites, so at most one invite per unit is live at a time.
type Invite struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Token         string     `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email         string     `json:"email" gorm:"type:varchar(100);index;not null"`
	UnitID        uint       `json:"unit_id" gorm:"index;not null"`
	InvitedByID   uint       `json:"invited_by_id" gorm:"not null"`
	ExpiresAt     time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	InvitedUserID *uint      `json:"invited_user_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relations
	Unit      Unit `json:"unit,omitempty" gorm:"foreignKey:UnitID"`
	InvitedBy User `json:"-" gorm:"foreignKey:InvitedByID"`
}

// BeforeCreate hook will be called before creating a new Invite record
func (i *Invite) BeforeCreate(tx *gorm.DB) (err error) {
	if i.Token == "" {
		i.Token = generateSecureToken()
	}
	return nil
}

// IsExpired determines whether the invite has expired.
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsUsed indicates whether the invite has already been accepted.
func (i *Invite) IsUsed() bool {
	return i.UsedAt != nil
}
