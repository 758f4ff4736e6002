package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormstay/internal/model"
)

type mockStore struct {
	GetStudentFunc         func(ctx context.Context, id int64) (model.Student, error)
	GetBookingWindowFunc   func(ctx context.Context) (model.BookingWindow, error)
	AssignRoomFunc         func(ctx context.Context, req AssignRequest) (Assignment, error)
	RecordBookingEventFunc func(ctx context.Context, ev *model.BookingEvent) error
}

func (m *mockStore) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	return m.GetStudentFunc(ctx, id)
}

func (m *mockStore) GetBookingWindow(ctx context.Context) (model.BookingWindow, error) {
	return m.GetBookingWindowFunc(ctx)
}

func (m *mockStore) AssignRoom(ctx context.Context, req AssignRequest) (Assignment, error) {
	return m.AssignRoomFunc(ctx, req)
}

func (m *mockStore) RecordBookingEvent(ctx context.Context, ev *model.BookingEvent) error {
	if m.RecordBookingEventFunc == nil {
		return nil
	}
	return m.RecordBookingEventFunc(ctx, ev)
}

type mockNotifier struct {
	sent []string
	full bool
}

func (m *mockNotifier) Notify(studentID int64, message string) bool {
	if m.full {
		return false
	}
	m.sent = append(m.sent, message)
	return true
}

func TestServiceBook(t *testing.T) {
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	room := model.Room{ID: 3, Number: 204, Capacity: 2}
	previous := int64(1)

	testCases := []struct {
		name           string
		assignment     Assignment
		err            error
		expectedOut    string
		expectedNotify int
	}{
		{
			name:           "booked",
			assignment:     Assignment{StudentID: 7, Room: room, BlockName: "A", DormName: "North", Occupancy: 1},
			expectedOut:    model.OutcomeBooked,
			expectedNotify: 1,
		},
		{
			name:        "unchanged",
			assignment:  Assignment{StudentID: 7, Room: room, Unchanged: true, PreviousRoomID: &room.ID},
			expectedOut: model.OutcomeUnchanged,
		},
		{
			name:        "denied",
			err:         Deny(KindCapacityExceeded),
			expectedOut: model.OutcomeDenied,
		},
		{
			name:        "failed",
			assignment:  Assignment{PreviousRoomID: &previous},
			err:         errors.New("connection reset"),
			expectedOut: model.OutcomeFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var events []*model.BookingEvent
			var got AssignRequest
			store := &mockStore{
				AssignRoomFunc: func(ctx context.Context, req AssignRequest) (Assignment, error) {
					got = req
					return tc.assignment, tc.err
				},
				RecordBookingEventFunc: func(ctx context.Context, ev *model.BookingEvent) error {
					events = append(events, ev)
					return nil
				},
			}
			notifier := &mockNotifier{}
			svc := NewService(store, Options{
				AllowReassign: true,
				Now:           func() time.Time { return now },
				Notifier:      notifier,
				Logger:        zerolog.Nop(),
			})

			a, err := svc.Book(context.Background(), 7, 3)
			assert.Equal(t, tc.err, err)
			assert.Equal(t, tc.assignment, a)

			assert.Equal(t, AssignRequest{StudentID: 7, RoomID: 3, Now: now, AllowReassign: true}, got)
			require.Len(t, events, 1)
			assert.Equal(t, tc.expectedOut, events[0].Outcome)
			assert.Equal(t, int64(7), events[0].StudentID)
			assert.Equal(t, int64(3), events[0].RoomID)
			assert.False(t, events[0].ByStaff)
			assert.Len(t, notifier.sent, tc.expectedNotify)
		})
	}
}

func TestServiceRecordsDenialReasons(t *testing.T) {
	var event *model.BookingEvent
	store := &mockStore{
		AssignRoomFunc: func(ctx context.Context, req AssignRequest) (Assignment, error) {
			return Assignment{}, Deny(KindUnauthorized, KindWindowClosed)
		},
		RecordBookingEventFunc: func(ctx context.Context, ev *model.BookingEvent) error {
			event = ev
			return nil
		},
	}
	svc := NewService(store, Options{Logger: zerolog.Nop()})

	_, err := svc.Book(context.Background(), 7, 3)
	var denial *Denial
	require.True(t, errors.As(err, &denial))
	require.NotNil(t, event)

	var reasons []Reason
	require.NoError(t, json.Unmarshal(event.Reasons, &reasons))
	assert.Equal(t, []Kind{KindUnauthorized, KindWindowClosed}, kinds(reasons))
}

func TestServiceAssignByStaff(t *testing.T) {
	var got AssignRequest
	var event *model.BookingEvent
	store := &mockStore{
		AssignRoomFunc: func(ctx context.Context, req AssignRequest) (Assignment, error) {
			got = req
			return Assignment{StudentID: req.StudentID, Room: model.Room{ID: req.RoomID}}, nil
		},
		RecordBookingEventFunc: func(ctx context.Context, ev *model.BookingEvent) error {
			event = ev
			return errors.New("audit table unavailable")
		},
	}
	svc := NewService(store, Options{Logger: zerolog.Nop()})

	_, err := svc.AssignByStaff(context.Background(), 7, 3)
	require.NoError(t, err, "audit failures must not fail the booking")
	assert.True(t, got.SkipEligibility)
	assert.True(t, got.AllowReassign)
	require.NotNil(t, event)
	assert.True(t, event.ByStaff)
}

func TestServiceNotifyQueueFull(t *testing.T) {
	store := &mockStore{
		AssignRoomFunc: func(ctx context.Context, req AssignRequest) (Assignment, error) {
			return Assignment{StudentID: 7, Room: model.Room{ID: 3, Number: 101}}, nil
		},
	}
	notifier := &mockNotifier{full: true}
	svc := NewService(store, Options{Notifier: notifier, Logger: zerolog.Nop()})

	_, err := svc.Book(context.Background(), 7, 3)
	assert.NoError(t, err)
	assert.Empty(t, notifier.sent)
}

func TestServiceEligibility(t *testing.T) {
	end := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	store := &mockStore{
		GetStudentFunc: func(ctx context.Context, id int64) (model.Student, error) {
			return model.Student{ID: id}, nil
		},
		GetBookingWindowFunc: func(ctx context.Context) (model.BookingWindow, error) {
			return model.BookingWindow{EndsAt: &end}, nil
		},
	}
	svc := NewService(store, Options{Now: func() time.Time { return end.Add(time.Second) }})

	reasons, window, err := svc.Eligibility(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindUnauthorized, KindWindowClosed}, kinds(reasons))
	assert.Equal(t, &end, window.EndsAt)

	store.GetStudentFunc = func(ctx context.Context, id int64) (model.Student, error) {
		return model.Student{}, errors.New("record not found")
	}
	_, _, err = svc.Eligibility(context.Background(), 7)
	assert.Error(t, err)
}
