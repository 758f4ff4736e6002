package booking

import (
	"fmt"

	"dormstay/internal/model"
)

const (
	// DefaultRoomCapacity is used when a block is created without a room capacity.
	DefaultRoomCapacity = 6
	// MarriedRoomCapacity is the fixed capacity of rooms in married dorms.
	MarriedRoomCapacity = 2
)

// EffectiveCapacity applies the married dorm override to a requested capacity.
func EffectiveCapacity(g model.Gender, requested int) int {
	if g == model.GenderMarried {
		return MarriedRoomCapacity
	}
	return requested
}

// RoomNumber returns the number of the r-th room on floor f, both 1-indexed.
func RoomNumber(floor, seq int) int {
	return floor*100 + seq
}

// PlanRooms lays out the rooms of a freshly created block. The block's
// capacity must already carry the married override. A block with no floors or
// no rooms per floor yields no rooms and a configuration warning.
func PlanRooms(b model.Block) ([]model.Room, *Warning) {
	if b.FloorCount <= 0 || b.RoomsPerFloor <= 0 {
		w := Warning{
			Kind: KindConfigurationWarning,
			Message: fmt.Sprintf("block %q has %d floors and %d rooms per floor; no rooms were generated",
				b.Name, b.FloorCount, b.RoomsPerFloor),
		}
		return nil, &w
	}

	rooms := make([]model.Room, 0, b.FloorCount*b.RoomsPerFloor)
	for floor := 1; floor <= b.FloorCount; floor++ {
		for seq := 1; seq <= b.RoomsPerFloor; seq++ {
			rooms = append(rooms, model.Room{
				Number:      RoomNumber(floor, seq),
				FloorNumber: floor,
				Cost:        b.RoomCost,
				Capacity:    b.DefaultRoomCapacity,
				BlockID:     b.ID,
				IsActive:    true,
			})
		}
	}
	return rooms, nil
}
