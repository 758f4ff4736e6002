package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormstay/internal/model"
)

func validateDorm(d *model.Dorm) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("%w: dorm name is required", ErrInvalid)
	}
	if !d.Gender.Valid() {
		return fmt.Errorf("%w: unknown dorm gender %q", ErrInvalid, d.Gender)
	}
	return nil
}

// ListDorms returns every dorm with its aggregated totals.
func (s *gormStore) ListDorms(ctx context.Context) ([]DormView, error) {
	var dorms []model.Dorm
	if err := s.db.WithContext(ctx).Order("id").Find(&dorms).Error; err != nil {
		return nil, fmt.Errorf("failed to list dorms: %w", err)
	}

	ids := make([]int64, 0, len(dorms))
	for _, d := range dorms {
		ids = append(ids, d.ID)
	}
	totals, err := s.DormTotals(ctx, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]DormView, 0, len(dorms))
	for _, d := range dorms {
		out = append(out, DormView{Dorm: d, Totals: totals[d.ID]})
	}
	return out, nil
}

// GetDorm loads a dorm by primary key.
func (s *gormStore) GetDorm(ctx context.Context, id int64) (model.Dorm, error) {
	var d model.Dorm
	err := s.db.WithContext(ctx).First(&d, id).Error
	return d, translate(err, "dorm", id)
}

// CreateDorm inserts a new dorm.
func (s *gormStore) CreateDorm(ctx context.Context, d *model.Dorm) error {
	if err := validateDorm(d); err != nil {
		return err
	}
	d.ID = 0
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error, "dorm", d.Name)
}

// UpdateDorm overwrites the editable fields of an existing dorm.
func (s *gormStore) UpdateDorm(ctx context.Context, d *model.Dorm) error {
	if err := validateDorm(d); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&model.Dorm{ID: d.ID}).
		Select("name", "gender", "is_active", "updated_at").
		Updates(d)
	if res.Error != nil {
		return translate(res.Error, "dorm", d.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("dorm %d: %w", d.ID, ErrNotFound)
	}
	return s.db.WithContext(ctx).First(d, d.ID).Error
}

// DeleteDorm removes a dorm that has no blocks left.
func (s *gormStore) DeleteDorm(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blocks int64
		if err := tx.Model(&model.Block{}).Where("dorm_id = ?", id).Count(&blocks).Error; err != nil {
			return fmt.Errorf("failed to count blocks of dorm %d: %w", id, err)
		}
		if blocks > 0 {
			return fmt.Errorf("dorm %d has %d blocks: %w", id, blocks, ErrProtected)
		}
		res := tx.Delete(&model.Dorm{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete dorm %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("dorm %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Directory lists active dorms, their active blocks and the floors holding
// active rooms. It backs the filter choices of the room listing.
func (s *gormStore) Directory(ctx context.Context) ([]DirectoryDorm, error) {
	db := s.db.WithContext(ctx)

	var dorms []model.Dorm
	if err := db.Where("is_active = ?", true).Order("name").Find(&dorms).Error; err != nil {
		return nil, fmt.Errorf("failed to list dorms: %w", err)
	}
	var blocks []model.Block
	if err := db.Where("is_active = ?", true).Order("name").Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	type floorRow struct {
		BlockID     int64
		FloorNumber int
	}
	var floors []floorRow
	err := db.Model(&model.Room{}).Distinct("block_id", "floor_number").
		Where("is_active = ?", true).Scan(&floors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}

	floorsByBlock := make(map[int64][]int)
	for _, f := range floors {
		floorsByBlock[f.BlockID] = append(floorsByBlock[f.BlockID], f.FloorNumber)
	}
	blocksByDorm := make(map[int64][]DirectoryBlock)
	for _, b := range blocks {
		fs := floorsByBlock[b.ID]
		sort.Ints(fs)
		if fs == nil {
			fs = []int{}
		}
		blocksByDorm[b.DormID] = append(blocksByDorm[b.DormID], DirectoryBlock{ID: b.ID, Name: b.Name, Floors: fs})
	}

	out := make([]DirectoryDorm, 0, len(dorms))
	for _, d := range dorms {
		bs := blocksByDorm[d.ID]
		if bs == nil {
			bs = []DirectoryBlock{}
		}
		out = append(out, DirectoryDorm{ID: d.ID, Name: d.Name, Gender: d.Gender, Blocks: bs})
	}
	return out, nil
}
