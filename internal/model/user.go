package model

import (
	"time"
)

// Role identifies what an account is allowed to do. There are exactly two
// kinds of account: apartment managers (admins) and residents.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleResident Role = "RESIDENT"
)

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleResident
}

// User represents an account stored in the database. Admins register
// themselves; residents are only created through invite acceptance.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	Phone     *string   `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
