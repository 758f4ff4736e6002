package model

import "time"

// Student is an account holder; staff accounts reach the admin API.
type Student struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	FirstName    string `gorm:"size:20;not null" json:"first_name"`
	LastName     string `gorm:"size:20;not null" json:"last_name"`
	NationalCode string `gorm:"size:10;uniqueIndex;not null" json:"national_code"`
	StudentCode  string `gorm:"size:9;uniqueIndex;not null" json:"student_code"`
	PasswordHash string `gorm:"size:72;not null" json:"-"`
	IsStaff      bool   `gorm:"not null" json:"is_staff"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
	PayedCost    bool   `gorm:"not null" json:"payed_cost"`
	// RoomID is the student's current placement; nil when unplaced.
	RoomID    *int64    `gorm:"index" json:"room_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Room *Room `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
