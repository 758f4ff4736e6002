package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dormstay/internal/model"
)

func kinds(reasons []Reason) []Kind {
	out := make([]Kind, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, r.Kind)
	}
	return out
}

func TestCheck(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	window := model.BookingWindow{StartsAt: &start, EndsAt: &end}
	paid := model.Student{PayedCost: true}
	unpaid := model.Student{}

	testCases := []struct {
		name     string
		student  model.Student
		window   model.BookingWindow
		now      time.Time
		expected []Kind
	}{
		{name: "inside the window", student: paid, window: window, now: start.Add(time.Hour), expected: []Kind{}},
		{name: "exactly at start", student: paid, window: window, now: start, expected: []Kind{}},
		{name: "exactly at end", student: paid, window: window, now: end, expected: []Kind{}},
		{name: "just before start", student: paid, window: window, now: start.Add(-time.Nanosecond), expected: []Kind{KindWindowNotOpen}},
		{name: "just after end", student: paid, window: window, now: end.Add(time.Nanosecond), expected: []Kind{KindWindowClosed}},
		{name: "unpaid", student: unpaid, window: window, now: start, expected: []Kind{KindUnauthorized}},
		{name: "unpaid and early", student: unpaid, window: window, now: start.Add(-time.Hour), expected: []Kind{KindUnauthorized, KindWindowNotOpen}},
		{name: "unpaid and late", student: unpaid, window: window, now: end.Add(time.Hour), expected: []Kind{KindUnauthorized, KindWindowClosed}},
		{name: "no bounds", student: paid, window: model.BookingWindow{}, now: time.Time{}, expected: []Kind{}},
		{name: "open ended start", student: paid, window: model.BookingWindow{EndsAt: &end}, now: start.AddDate(-1, 0, 0), expected: []Kind{}},
		{name: "open ended end", student: paid, window: model.BookingWindow{StartsAt: &start}, now: end.AddDate(1, 0, 0), expected: []Kind{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Check(tc.student, tc.window, tc.now)
			assert.Equal(t, tc.expected, kinds(got))
			for _, r := range got {
				assert.NotEmpty(t, r.Message)
			}
		})
	}
}

func TestCheckTarget(t *testing.T) {
	room := model.Room{Capacity: 3, IsActive: true}
	inactive := model.Room{Capacity: 3}

	testCases := []struct {
		name        string
		room        model.Room
		blockActive bool
		dormActive  bool
		occupied    int64
		expected    Kind
	}{
		{name: "free place", room: room, blockActive: true, dormActive: true, occupied: 2},
		{name: "empty room", room: room, blockActive: true, dormActive: true, occupied: 0},
		{name: "full", room: room, blockActive: true, dormActive: true, occupied: 3, expected: KindCapacityExceeded},
		{name: "over capacity", room: room, blockActive: true, dormActive: true, occupied: 4, expected: KindCapacityExceeded},
		{name: "inactive room", room: inactive, blockActive: true, dormActive: true, expected: KindInvalidTarget},
		{name: "inactive block", room: room, blockActive: false, dormActive: true, expected: KindInvalidTarget},
		{name: "inactive dorm", room: room, blockActive: true, dormActive: false, expected: KindInvalidTarget},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := CheckTarget(tc.room, tc.blockActive, tc.dormActive, tc.occupied)
			if tc.expected == "" {
				assert.Nil(t, d)
				return
			}
			if assert.NotNil(t, d) {
				assert.True(t, d.Has(tc.expected))
				assert.Len(t, d.Reasons, 1)
			}
		})
	}
}

func TestDenialError(t *testing.T) {
	d := Deny(KindUnauthorized, KindWindowClosed)
	assert.Equal(t, "booking denied: unauthorized, window_closed", d.Error())
	assert.False(t, d.Has(KindCapacityExceeded))
}
