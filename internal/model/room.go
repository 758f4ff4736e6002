package model

import "time"

// Room is a bookable unit inside a block.
type Room struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Number      int       `gorm:"not null;uniqueIndex:idx_rooms_block_number" json:"number"`
	FloorNumber int       `gorm:"not null;index" json:"floor_number"`
	Cost        int64     `gorm:"not null" json:"cost"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	BlockID     int64     `gorm:"not null;uniqueIndex:idx_rooms_block_number" json:"block_id"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Block *Block `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
