package model

import (
	"time"
)

// Apartment represents a building managed by an admin user. One manager
// owns many apartments; an apartment has many units and many dues.
type Apartment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Address   string    `json:"address" gorm:"type:text;not null"`
	ManagerID uint      `json:"manager_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Manager User   `json:"-" gorm:"foreignKey:ManagerID"`
	Units   []Unit `json:"units,omitempty" gorm:"foreignKey:ApartmentID"`
	Dues    []Due  `json:"dues,omitempty" gorm:"foreignKey:ApartmentID"`
}
