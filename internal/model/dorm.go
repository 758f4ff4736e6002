package model

import "time"

// Gender is the resident group a dorm is reserved for.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderMarried Gender = "married"
)

// Valid reports whether g is one of the known gender categories.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderMarried:
		return true
	}
	return false
}

// Dorm represents a dormitory building.
type Dorm struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Gender    Gender    `gorm:"size:8;not null" json:"gender"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
