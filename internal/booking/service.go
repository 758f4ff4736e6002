package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dormstay/internal/metrics"
	"dormstay/internal/model"
)

// Store is the persistence the booking flow depends on.
type Store interface {
	GetStudent(ctx context.Context, id int64) (model.Student, error)
	GetBookingWindow(ctx context.Context) (model.BookingWindow, error)
	AssignRoom(ctx context.Context, req AssignRequest) (Assignment, error)
	RecordBookingEvent(ctx context.Context, ev *model.BookingEvent) error
}

// AssignRequest describes one atomic placement of a student into a room.
type AssignRequest struct {
	StudentID       int64
	RoomID          int64
	Now             time.Time
	SkipEligibility bool
	AllowReassign   bool
}

// Assignment is the committed result of AssignRoom.
type Assignment struct {
	StudentID      int64      `json:"student_id"`
	Room           model.Room `json:"room"`
	BlockName      string     `json:"block_name"`
	DormName       string     `json:"dorm_name"`
	PreviousRoomID *int64     `json:"previous_room_id,omitempty"`
	Occupancy      int64      `json:"occupancy"`
	Unchanged      bool       `json:"unchanged"`
}

// Notifier delivers a confirmation to a student. It must not block.
type Notifier interface {
	Notify(studentID int64, message string) bool
}

// Options configures a Service.
type Options struct {
	AllowReassign bool
	Now           func() time.Time
	Notifier      Notifier
	Logger        zerolog.Logger
}

// Service runs eligibility checks and the booking allocator.
type Service struct {
	store         Store
	allowReassign bool
	now           func() time.Time
	notifier      Notifier
	log           zerolog.Logger
}

// NewService creates a booking service on top of store.
func NewService(store Store, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:         store,
		allowReassign: opts.AllowReassign,
		now:           now,
		notifier:      opts.Notifier,
		log:           opts.Logger,
	}
}

// Eligibility returns every failing gate for the student together with the current window.
func (s *Service) Eligibility(ctx context.Context, studentID int64) ([]Reason, model.BookingWindow, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, model.BookingWindow{}, err
	}
	window, err := s.store.GetBookingWindow(ctx)
	if err != nil {
		return nil, model.BookingWindow{}, err
	}
	return Check(student, window, s.now()), window, nil
}

// Book places the student in the room if every gate passes and a place is free.
// Refusals are returned as *Denial; any other error is an infrastructure failure
// and leaves the student's placement unchanged.
func (s *Service) Book(ctx context.Context, studentID, roomID int64) (Assignment, error) {
	return s.assign(ctx, AssignRequest{
		StudentID:     studentID,
		RoomID:        roomID,
		AllowReassign: s.allowReassign,
	}, false)
}

// AssignByStaff places a student on behalf of an administrator. Payment and
// window gates are skipped; capacity is still enforced.
func (s *Service) AssignByStaff(ctx context.Context, studentID, roomID int64) (Assignment, error) {
	return s.assign(ctx, AssignRequest{
		StudentID:       studentID,
		RoomID:          roomID,
		SkipEligibility: true,
		AllowReassign:   true,
	}, true)
}

func (s *Service) assign(ctx context.Context, req AssignRequest, byStaff bool) (Assignment, error) {
	started := time.Now()
	req.Now = s.now()

	a, err := s.store.AssignRoom(ctx, req)

	var denial *Denial
	outcome := model.OutcomeBooked
	switch {
	case errors.As(err, &denial):
		outcome = model.OutcomeDenied
	case err != nil:
		outcome = model.OutcomeFailed
	case a.Unchanged:
		outcome = model.OutcomeUnchanged
	}

	var kinds []string
	if denial != nil {
		for _, r := range denial.Reasons {
			kinds = append(kinds, string(r.Kind))
		}
	}
	metrics.ObserveBooking(outcome, time.Since(started), kinds...)
	s.record(ctx, req, a, outcome, denial, byStaff)

	logEvent := s.log.Info()
	if outcome == model.OutcomeFailed {
		logEvent = s.log.Error().Err(err)
	}
	logEvent.
		Int64("student_id", req.StudentID).
		Int64("room_id", req.RoomID).
		Str("outcome", outcome).
		Strs("reasons", kinds).
		Bool("by_staff", byStaff).
		Msg("booking attempt")

	if outcome == model.OutcomeBooked && s.notifier != nil {
		msg := fmt.Sprintf("Room %d of block %s (%s) has been reserved for you.", a.Room.Number, a.BlockName, a.DormName)
		if !s.notifier.Notify(req.StudentID, msg) {
			s.log.Warn().Int64("student_id", req.StudentID).Msg("notification queue full; confirmation dropped")
		}
	}
	return a, err
}

func (s *Service) record(ctx context.Context, req AssignRequest, a Assignment, outcome string, denial *Denial, byStaff bool) {
	ev := &model.BookingEvent{
		StudentID:      req.StudentID,
		RoomID:         req.RoomID,
		PreviousRoomID: a.PreviousRoomID,
		Outcome:        outcome,
		ByStaff:        byStaff,
	}
	if denial != nil {
		if raw, err := json.Marshal(denial.Reasons); err == nil {
			ev.Reasons = raw
		}
	}
	if err := s.store.RecordBookingEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Int64("student_id", req.StudentID).Msg("failed to record booking event")
	}
}
