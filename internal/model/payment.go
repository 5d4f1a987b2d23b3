package model

import (
	"time"
)

// PaymentStatus is the review state of a receipt submission.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentRejected PaymentStatus = "REJECTED"
)

// Payment is a resident's receipt submission against a due. A unit has at
// most one payment row per due; a re-upload after rejection overwrites the
// same row instead of creating history.
type Payment struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	DueID           uint          `json:"due_id" gorm:"uniqueIndex:idx_payments_due_unit;not null"`
	UnitID          uint          `json:"unit_id" gorm:"uniqueIndex:idx_payments_due_unit;not null"`
	ResidentID      uint          `json:"resident_id" gorm:"index;not null"`
	Status          PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	ReceiptURL      string        `json:"receipt_url" gorm:"type:text;not null"`
	ReceiptKey      *string       `json:"receipt_key,omitempty" gorm:"type:varchar(255)"`
	RejectionReason *string       `json:"rejection_reason,omitempty" gorm:"type:text"`
	UploadedAt      time.Time     `json:"uploaded_at" gorm:"not null"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Relations
	Due      Due   `json:"due,omitempty" gorm:"foreignKey:DueID"`
	Unit     Unit  `json:"unit,omitempty" gorm:"foreignKey:UnitID"`
	Resident *User `json:"resident,omitempty" gorm:"foreignKey:ResidentID"`
}
