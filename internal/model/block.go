package model

import "time"

// Block is a wing of a dorm holding floors of rooms.
type Block struct {
	ID                  int64  `gorm:"primaryKey" json:"id"`
	Name                string `gorm:"size:64;not null" json:"name"`
	DormID              int64  `gorm:"index;not null" json:"dorm_id"`
	FloorCount          int    `gorm:"not null" json:"floor_count"`
	RoomsPerFloor       int    `gorm:"not null" json:"rooms_per_floor"`
	DefaultRoomCapacity int    `gorm:"not null" json:"default_room_capacity"`
	RoomCost            int64  `gorm:"not null" json:"room_cost"`
	// SupervisorID is a weak reference; it is cleared when the student is removed.
	SupervisorID *int64    `gorm:"index" json:"supervisor_id"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Dorm *Dorm `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
