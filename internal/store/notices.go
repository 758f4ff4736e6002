package store

import (
	"context"
	"fmt"
	"strings"

	"dormstay/internal/model"
)

func (s *gormStore) ListNotices(ctx context.Context, limit int) ([]model.Notice, error) {
	notices := []model.Notice{}
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notices).Error; err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", err)
	}
	return notices, nil
}

func (s *gormStore) CreateNotice(ctx context.Context, n *model.Notice) error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return fmt.Errorf("%w: notice title is required", ErrInvalid)
	}
	n.ID = 0
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *gormStore) DeleteNotice(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Notice{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete notice %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notice %d: %w", id, ErrNotFound)
	}
	return nil
}
