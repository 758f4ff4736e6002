package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormstay/internal/booking"
	"dormstay/internal/model"
)

// GetStudent loads a student by primary key.
func (s *gormStore) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	var st model.Student
	err := s.db.WithContext(ctx).First(&st, id).Error
	return st, translate(err, "student", id)
}

// GetBookingWindow returns the singleton booking window, creating an open one on first use.
func (s *gormStore) GetBookingWindow(ctx context.Context) (model.BookingWindow, error) {
	var w model.BookingWindow
	err := s.db.WithContext(ctx).First(&w, model.BookingWindowID).Error
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return w, fmt.Errorf("failed to load booking window: %w", err)
	}
	if err := s.ensureWindow(s.db.WithContext(ctx)); err != nil {
		return w, err
	}
	err = s.db.WithContext(ctx).First(&w, model.BookingWindowID).Error
	return w, translate(err, "booking window", model.BookingWindowID)
}

func (s *gormStore) ensureWindow(tx *gorm.DB) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.BookingWindow{ID: model.BookingWindowID}).Error
	if err != nil {
		return fmt.Errorf("failed to create booking window: %w", err)
	}
	return nil
}

// SetBookingWindow replaces both bounds of the booking window. A nil bound is open-ended.
func (s *gormStore) SetBookingWindow(ctx context.Context, startsAt, endsAt *time.Time) (model.BookingWindow, error) {
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return model.BookingWindow{}, fmt.Errorf("%w: window ends before it starts", ErrInvalid)
	}

	var w model.BookingWindow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureWindow(tx); err != nil {
			return err
		}
		err := tx.Model(&model.BookingWindow{ID: model.BookingWindowID}).
			Updates(map[string]any{"starts_at": startsAt, "ends_at": endsAt}).Error
		if err != nil {
			return fmt.Errorf("failed to update booking window: %w", err)
		}
		return tx.First(&w, model.BookingWindowID).Error
	})
	return w, err
}

// AssignRoom places a student into a room atomically. The student row is
// locked first, then the room row, and the occupancy count is taken under the
// room lock so two concurrent bookings of the last place cannot both succeed.
func (s *gormStore) AssignRoom(ctx context.Context, req booking.AssignRequest) (booking.Assignment, error) {
	var out booking.Assignment
	err := s.withRetry(ctx, "assign room", func() error {
		out = booking.Assignment{}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return assignInTx(tx, req, &out)
		})
	})
	return out, err
}

func assignInTx(tx *gorm.DB, req booking.AssignRequest, out *booking.Assignment) error {
	var student model.Student
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&student, req.StudentID).Error
	if err != nil {
		return translate(err, "student", req.StudentID)
	}
	out.StudentID = student.ID
	out.PreviousRoomID = student.RoomID

	if !req.SkipEligibility {
		var window model.BookingWindow
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Limit(1).Find(&window, model.BookingWindowID).Error
		if err != nil {
			return fmt.Errorf("failed to read booking window: %w", err)
		}
		if reasons := booking.Check(student, window, req.Now); len(reasons) > 0 {
			return &booking.Denial{Reasons: reasons}
		}
		if !req.AllowReassign && student.RoomID != nil && *student.RoomID != req.RoomID {
			return booking.Deny(booking.KindAlreadyAssigned)
		}
	}

	var room model.Room
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, req.RoomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.Deny(booking.KindNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock room %d: %w", req.RoomID, err)
	}

	// Must stay the first non-locking read so it sees every committed placement.
	var occupied int64
	err = tx.Model(&model.Student{}).
		Where("room_id = ? AND id <> ?", room.ID, student.ID).
		Count(&occupied).Error
	if err != nil {
		return fmt.Errorf("failed to count occupants of room %d: %w", room.ID, err)
	}

	var block model.Block
	if err := tx.First(&block, room.BlockID).Error; err != nil {
		return fmt.Errorf("failed to load block %d: %w", room.BlockID, err)
	}
	var dorm model.Dorm
	if err := tx.First(&dorm, block.DormID).Error; err != nil {
		return fmt.Errorf("failed to load dorm %d: %w", block.DormID, err)
	}
	out.Room, out.BlockName, out.DormName = room, block.Name, dorm.Name

	if d := booking.CheckTarget(room, block.IsActive, dorm.IsActive, occupied); d != nil {
		return d
	}
	out.Occupancy = occupied + 1

	if student.RoomID != nil && *student.RoomID == room.ID {
		out.Unchanged = true
		return nil
	}

	err = tx.Model(&model.Student{}).Where("id = ?", student.ID).Update("room_id", room.ID).Error
	if err != nil {
		return fmt.Errorf("failed to assign student %d to room %d: %w", student.ID, room.ID, err)
	}
	return nil
}

// RecordBookingEvent appends an entry to the booking audit trail.
func (s *gormStore) RecordBookingEvent(ctx context.Context, ev *model.BookingEvent) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to record booking event: %w", err)
	}
	return nil
}

// ListBookingEvents pages through the audit trail, optionally for one student.
func (s *gormStore) ListBookingEvents(ctx context.Context, studentID *int64, page int) (EventPage, error) {
	page, offset := s.offset(page)
	out := EventPage{Page: page, PageSize: s.pageSize, Events: []model.BookingEvent{}}

	scope := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.BookingEvent{})
		if studentID != nil {
			q = q.Where("student_id = ?", *studentID)
		}
		return q
	}
	if err := scope().Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("failed to count booking events: %w", err)
	}
	err := scope().Order("created_at DESC").Order("id DESC").
		Limit(s.pageSize).Offset(offset).Find(&out.Events).Error
	if err != nil {
		return out, fmt.Errorf("failed to list booking events: %w", err)
	}
	out.Pages = pages(out.Total, s.pageSize)
	return out, nil
}
