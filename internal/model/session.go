package model

import "time"

// Session is an opaque bearer token issued at login.
type Session struct {
	Token     string    `gorm:"primaryKey;size:36"`
	StudentID int64     `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Student *Student `gorm:"constraint:OnDelete:CASCADE"`
}
