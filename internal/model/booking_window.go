package model

import "time"

// BookingWindowID is the primary key of the only booking window row.
const BookingWindowID int64 = 1

// BookingWindow is the room selection period. A nil bound is open-ended.
type BookingWindow struct {
	ID        int64      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
