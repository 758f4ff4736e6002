package booking

import (
	"time"

	"dormstay/internal/model"
)

// Check evaluates the payment and booking window gates for a student at now.
// Every failing gate contributes its own reason; an empty result means eligible.
// Both window bounds are inclusive.
func Check(s model.Student, w model.BookingWindow, now time.Time) []Reason {
	var reasons []Reason
	if !s.PayedCost {
		reasons = append(reasons, NewReason(KindUnauthorized))
	}
	if w.StartsAt != nil && now.Before(*w.StartsAt) {
		reasons = append(reasons, NewReason(KindWindowNotOpen))
	}
	if w.EndsAt != nil && now.After(*w.EndsAt) {
		reasons = append(reasons, NewReason(KindWindowClosed))
	}
	return reasons
}

// CheckTarget validates a room against its current occupancy. blockActive and
// dormActive describe the room's ancestors. occupied must be a fresh count.
func CheckTarget(room model.Room, blockActive, dormActive bool, occupied int64) *Denial {
	if !room.IsActive || !blockActive || !dormActive {
		return Deny(KindInvalidTarget)
	}
	if occupied >= int64(room.Capacity) {
		return Deny(KindCapacityExceeded)
	}
	return nil
}
