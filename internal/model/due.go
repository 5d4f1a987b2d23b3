package model

import (
	"time"
)

// Due is a published payment obligation for one month of one apartment.
// Dues are append-only: once created they are never updated or deleted,
// which is why (apartment_id, month, year) carries a unique index.
type Due struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ApartmentID uint      `json:"apartment_id" gorm:"uniqueIndex:idx_dues_apartment_period;not null"`
	Amount      float64   `json:"amount" gorm:"not null"`
	Month       int       `json:"month" gorm:"uniqueIndex:idx_dues_apartment_period;not null"`
	Year        int       `json:"year" gorm:"uniqueIndex:idx_dues_apartment_period;not null"`
	DueDate     time.Time `json:"due_date" gorm:"not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Apartment Apartment `json:"-" gorm:"foreignKey:ApartmentID"`
	Payments  []Payment `json:"payments,omitempty" gorm:"foreignKey:DueID"`
}
