package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"dormstay/internal/model"
)

// PutSubscription creates or replaces a push subscription. An endpoint that
// moves to another student is taken over.
func (s *gormStore) PutSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "student_id"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns the push subscriptions of one student.
func (s *gormStore) ListSubscriptions(ctx context.Context, studentID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions of student %d: %w", studentID, err)
	}
	return subs, nil
}

// DeleteSubscription removes one of the student's subscriptions.
func (s *gormStore) DeleteSubscription(ctx context.Context, studentID int64, endpoint string) error {
	res := s.db.WithContext(ctx).Where("endpoint = ? AND student_id = ?", endpoint, studentID).
		Delete(&model.PushSubscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription: %w", ErrNotFound)
	}
	return nil
}

// DeleteSubscriptionByEndpoint drops a subscription the push service reported as gone.
func (s *gormStore) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&model.PushSubscription{}).Error
}
