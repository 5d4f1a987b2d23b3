package model

import (
	"time"
)

// Unit represents a single flat inside an apartment. A unit holds at most
// one resident at a time; a vacant unit has a NULL resident_id.
type Unit struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ApartmentID uint      `json:"apartment_id" gorm:"uniqueIndex:idx_units_apartment_number;not null"`
	UnitNumber  string    `json:"unit_number" gorm:"type:varchar(20);uniqueIndex:idx_units_apartment_number;not null"`
	Floor       *int      `json:"floor,omitempty"`
	ResidentID  *uint     `json:"resident_id,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Apartment Apartment `json:"apartment,omitempty" gorm:"foreignKey:ApartmentID"`
	Resident  *User     `json:"resident,omitempty" gorm:"foreignKey:ResidentID"`
}

// Occupied reports whether a resident currently lives in the unit.
func (u *Unit) Occupied() bool {
	return u.ResidentID != nil
}
