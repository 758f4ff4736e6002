package store

import (
	"fmt"
	"strings"
	"time"

	"dormstay/internal/booking"
	"dormstay/internal/model"
)

// SortOrder is an optional sort direction for room listings.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "", "asc" and "desc" in any case.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortNone:
		return SortNone, nil
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return SortNone, fmt.Errorf("%w: sort order %q", ErrInvalid, s)
}

func (o SortOrder) sql() string {
	if o == SortDesc {
		return "DESC"
	}
	return "ASC"
}

// RoomFilter narrows and orders a room listing. Zero values mean "no filter".
type RoomFilter struct {
	DormID  *int64
	BlockID *int64
	Floor   *int
	Free    SortOrder
	Cost    SortOrder
	Page    int

	// IncludeInactive lists rooms whose room, block or dorm is inactive.
	IncludeInactive bool
	// Active filters on the room's own flag; only meaningful with IncludeInactive.
	Active *bool
}

// RoomView is a room together with its location and live occupancy.
type RoomView struct {
	ID          int64  `json:"id"`
	Number      int    `json:"number"`
	FloorNumber int    `json:"floor_number"`
	Cost        int64  `json:"cost"`
	Capacity    int    `json:"capacity"`
	Occupancy   int64  `json:"occupancy"`
	IsActive    bool   `json:"is_active"`
	BlockID     int64  `json:"block_id"`
	BlockName   string `json:"block_name"`
	DormID      int64  `json:"dorm_id"`
	DormName    string `json:"dorm_name"`
}

// FreeCapacity is the number of places left in the room.
func (r RoomView) FreeCapacity() int64 {
	return int64(r.Capacity) - r.Occupancy
}

// RoomPage is one page of a room listing.
type RoomPage struct {
	Rooms    []RoomView `json:"rooms"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int64      `json:"total"`
	Pages    int        `json:"pages"`
}

// RoomPatch carries the admin-editable room fields; nil fields are left alone.
type RoomPatch struct {
	Number   *int   `json:"number"`
	Cost     *int64 `json:"cost"`
	Capacity *int   `json:"capacity"`
	IsActive *bool  `json:"is_active"`
}

// DormView is a dorm with its aggregated totals.
type DormView struct {
	model.Dorm
	booking.Totals
}

// BlockView is a block with its aggregated totals.
type BlockView struct {
	model.Block
	booking.Totals
}

// DirectoryDorm is the public view of an active dorm, used for room filters.
type DirectoryDorm struct {
	ID     int64            `json:"id"`
	Name   string           `json:"name"`
	Gender model.Gender     `json:"gender"`
	Blocks []DirectoryBlock `json:"blocks"`
}

// DirectoryBlock lists the floors of an active block that hold active rooms.
type DirectoryBlock struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Floors []int  `json:"floors"`
}

// StudentFilter narrows the admin student listing.
type StudentFilter struct {
	Query   string
	Payed   *bool
	Placed  *bool
	DormID  *int64
	BlockID *int64
	Page    int
}

// StudentPage is one page of students.
type StudentPage struct {
	Students []model.Student `json:"students"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int64           `json:"total"`
	Pages    int             `json:"pages"`
}

// StudentPatch carries the admin-editable student flags.
type StudentPatch struct {
	PayedCost *bool `json:"payed_cost"`
	IsActive  *bool `json:"is_active"`
	IsStaff   *bool `json:"is_staff"`
}

// EventPage is one page of the booking audit trail, newest first.
type EventPage struct {
	Events   []model.BookingEvent `json:"events"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Total    int64                `json:"total"`
	Pages    int                  `json:"pages"`
}

// WindowBounds is the payload for updating the booking window.
type WindowBounds struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}
