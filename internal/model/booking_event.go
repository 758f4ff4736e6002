package model

import (
	"time"

	"gorm.io/datatypes"
)

// Booking outcomes recorded in the audit trail.
const (
	OutcomeBooked    = "booked"
	OutcomeUnchanged = "unchanged"
	OutcomeDenied    = "denied"
	OutcomeFailed    = "failed"
)

// BookingEvent records one booking attempt, successful or not.
type BookingEvent struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	StudentID      int64          `gorm:"index;not null" json:"student_id"`
	RoomID         int64          `gorm:"index;not null" json:"room_id"`
	PreviousRoomID *int64         `json:"previous_room_id"`
	Outcome        string         `gorm:"size:16;not null;index" json:"outcome"`
	Reasons        datatypes.JSON `json:"reasons"`
	ByStaff        bool           `gorm:"not null" json:"by_staff"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}
