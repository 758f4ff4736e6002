package booking

import "strings"

// Kind classifies why a booking or block operation did not go through.
type Kind string

const (
	KindUnauthorized         Kind = "unauthorized"
	KindWindowNotOpen        Kind = "window_not_open"
	KindWindowClosed         Kind = "window_closed"
	KindNotFound             Kind = "not_found"
	KindInvalidTarget        Kind = "invalid_target"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindAlreadyAssigned      Kind = "already_assigned"
	KindConfigurationWarning Kind = "configuration_warning"
)

// Reason is a user-displayable explanation attached to a Kind.
type Reason struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

var messages = map[Kind]string{
	KindUnauthorized:     "Room fees have not been paid yet.",
	KindWindowNotOpen:    "Room selection has not started yet.",
	KindWindowClosed:     "Room selection has ended.",
	KindNotFound:         "The selected room does not exist.",
	KindInvalidTarget:    "The selected room is not available for booking.",
	KindCapacityExceeded: "The selected room is already full.",
	KindAlreadyAssigned:  "You already hold a room.",
}

// NewReason builds a Reason with the standard message for k.
func NewReason(k Kind) Reason {
	return Reason{Kind: k, Message: messages[k]}
}

// Denial is returned when a booking is refused by a gate or a capacity check.
// It is a normal outcome, not an infrastructure failure.
type Denial struct {
	Reasons []Reason
}

// Deny wraps the given kinds in a Denial.
func Deny(kinds ...Kind) *Denial {
	d := &Denial{Reasons: make([]Reason, 0, len(kinds))}
	for _, k := range kinds {
		d.Reasons = append(d.Reasons, NewReason(k))
	}
	return d
}

func (d *Denial) Error() string {
	parts := make([]string, 0, len(d.Reasons))
	for _, r := range d.Reasons {
		parts = append(parts, string(r.Kind))
	}
	return "booking denied: " + strings.Join(parts, ", ")
}

// Has reports whether the denial contains a reason of kind k.
func (d *Denial) Has(k Kind) bool {
	for _, r := range d.Reasons {
		if r.Kind == k {
			return true
		}
	}
	return false
}

// Warning is a non-fatal condition surfaced to administrators.
type Warning = Reason
