package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dormstay/internal/model"
)

// CreateSession issues a new bearer token for the student and drops the
// student's expired ones.
func (s *gormStore) CreateSession(ctx context.Context, studentID int64, now time.Time, ttl time.Duration) (model.Session, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("student_id = ? AND expires_at <= ?", studentID, now).Delete(&model.Session{}).Error; err != nil {
		s.log.Warn().Err(err).Int64("student_id", studentID).Msg("failed to purge expired sessions")
	}

	sess := model.Session{
		Token:     uuid.NewString(),
		StudentID: studentID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := db.Omit("Student").Create(&sess).Error; err != nil {
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// StudentForSession resolves a live token to its active student.
func (s *gormStore) StudentForSession(ctx context.Context, token string, now time.Time) (model.Student, error) {
	var sess model.Session
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		Preload("Student").
		First(&sess).Error
	if err != nil {
		return model.Student{}, translate(err, "session", "")
	}
	if sess.Student == nil || !sess.Student.IsActive {
		return model.Student{}, fmt.Errorf("student of session: %w", ErrNotFound)
	}
	return *sess.Student, nil
}

// DeleteSession revokes a token. Unknown tokens are ignored.
func (s *gormStore) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{}).Error
}

// PurgeExpiredSessions deletes every session that expired before now.
func (s *gormStore) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
