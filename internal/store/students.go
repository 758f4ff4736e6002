package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormstay/internal/model"
)

// CreateStudent inserts a new account. Unique violations on either code map to ErrDuplicate.
func (s *gormStore) CreateStudent(ctx context.Context, st *model.Student) error {
	st.ID = 0
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(st).Error
	return translate(err, "student", st.StudentCode)
}

// GetStudentByCode loads a student by student code.
func (s *gormStore) GetStudentByCode(ctx context.Context, studentCode string) (model.Student, error) {
	var st model.Student
	err := s.db.WithContext(ctx).Where("student_code = ?", studentCode).First(&st).Error
	return st, translate(err, "student", studentCode)
}

// CodesTaken reports which of the two codes already belong to an account.
func (s *gormStore) CodesTaken(ctx context.Context, studentCode, nationalCode string) (bool, bool, error) {
	var matches []model.Student
	err := s.db.WithContext(ctx).Select("student_code", "national_code").
		Where("student_code = ? OR national_code = ?", studentCode, nationalCode).
		Find(&matches).Error
	if err != nil {
		return false, false, fmt.Errorf("failed to look up codes: %w", err)
	}
	var studentTaken, nationalTaken bool
	for _, m := range matches {
		studentTaken = studentTaken || m.StudentCode == studentCode
		nationalTaken = nationalTaken || m.NationalCode == nationalCode
	}
	return studentTaken, nationalTaken, nil
}

// EnsureStaff creates the given staff account unless its student code is
// already registered.
func (s *gormStore) EnsureStaff(ctx context.Context, st *model.Student) (bool, error) {
	existing, err := s.GetStudentByCode(ctx, st.StudentCode)
	if err == nil {
		*st = existing
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	st.IsStaff, st.IsActive = true, true
	if err := s.CreateStudent(ctx, st); err != nil {
		return false, err
	}
	return true, nil
}

func (s *gormStore) studentScope(ctx context.Context, f StudentFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Student{})
	if f.DormID != nil || f.BlockID != nil {
		q = q.Joins("JOIN rooms ON rooms.id = students.room_id").
			Joins("JOIN blocks ON blocks.id = rooms.block_id")
		if f.DormID != nil {
			q = q.Where("blocks.dorm_id = ?", *f.DormID)
		}
		if f.BlockID != nil {
			q = q.Where("rooms.block_id = ?", *f.BlockID)
		}
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + term + "%"
		q = q.Where("students.first_name LIKE ? OR students.last_name LIKE ? OR students.student_code LIKE ? OR students.national_code LIKE ?",
			like, like, like, like)
	}
	if f.Payed != nil {
		q = q.Where("students.payed_cost = ?", *f.Payed)
	}
	if f.Placed != nil {
		if *f.Placed {
			q = q.Where("students.room_id IS NOT NULL")
		} else {
			q = q.Where("students.room_id IS NULL")
		}
	}
	return q
}

// ListStudents pages through students matching f, ordered by name.
func (s *gormStore) ListStudents(ctx context.Context, f StudentFilter) (StudentPage, error) {
	page, offset := s.offset(f.Page)
	out := StudentPage{Page: page, PageSize: s.pageSize, Students: []model.Student{}}

	if err := s.studentScope(ctx, f).Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("failed to count students: %w", err)
	}
	out.Pages = pages(out.Total, s.pageSize)

	err := s.studentScope(ctx, f).Select("students.*").
		Order("students.last_name").Order("students.first_name").Order("students.id").
		Limit(s.pageSize).Offset(offset).
		Find(&out.Students).Error
	if err != nil {
		return out, fmt.Errorf("failed to list students: %w", err)
	}
	return out, nil
}

// UpdateStudentFlags applies an admin patch to a student's flags.
func (s *gormStore) UpdateStudentFlags(ctx context.Context, id int64, p StudentPatch) (model.Student, error) {
	updates := map[string]any{}
	if p.PayedCost != nil {
		updates["payed_cost"] = *p.PayedCost
	}
	if p.IsActive != nil {
		updates["is_active"] = *p.IsActive
	}
	if p.IsStaff != nil {
		updates["is_staff"] = *p.IsStaff
	}

	var st model.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&st, id).Error; err != nil {
			return translate(err, "student", id)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&st).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update student %d: %w", id, err)
		}
		return tx.First(&st, id).Error
	})
	return st, err
}

// VacateStudent clears a student's placement.
func (s *gormStore) VacateStudent(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st model.Student
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&st, id).Error; err != nil {
			return translate(err, "student", id)
		}
		if st.RoomID == nil {
			return nil
		}
		return tx.Model(&st).Update("room_id", nil).Error
	})
}

// DeleteStudent removes an account with its sessions and subscriptions and
// drops it as supervisor from any block.
func (s *gormStore) DeleteStudent(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Block{}).Where("supervisor_id = ?", id).Update("supervisor_id", nil).Error; err != nil {
			return fmt.Errorf("failed to clear supervisor %d: %w", id, err)
		}
		if err := tx.Where("student_id = ?", id).Delete(&model.Session{}).Error; err != nil {
			return fmt.Errorf("failed to delete sessions of student %d: %w", id, err)
		}
		if err := tx.Where("student_id = ?", id).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions of student %d: %w", id, err)
		}
		res := tx.Delete(&model.Student{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete student %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("student %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
