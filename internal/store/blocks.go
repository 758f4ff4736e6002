package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormstay/internal/booking"
	"dormstay/internal/model"
)

const roomBatchSize = 200

// prepareBlock validates b against its dorm and applies the married capacity override.
func prepareBlock(tx *gorm.DB, b *model.Block) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return fmt.Errorf("%w: block name is required", ErrInvalid)
	}
	if b.RoomsPerFloor > 99 {
		return fmt.Errorf("%w: at most 99 rooms per floor", ErrInvalid)
	}
	if b.RoomCost < 0 {
		return fmt.Errorf("%w: room cost must not be negative", ErrInvalid)
	}

	var dorm model.Dorm
	if err := tx.First(&dorm, b.DormID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: dorm %d does not exist", ErrInvalid, b.DormID)
		}
		return fmt.Errorf("failed to load dorm %d: %w", b.DormID, err)
	}
	b.DefaultRoomCapacity = booking.EffectiveCapacity(dorm.Gender, b.DefaultRoomCapacity)
	if b.DefaultRoomCapacity <= 0 {
		return fmt.Errorf("%w: room capacity must be positive", ErrInvalid)
	}

	if b.SupervisorID != nil {
		var n int64
		if err := tx.Model(&model.Student{}).Where("id = ?", *b.SupervisorID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check supervisor: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: supervisor %d does not exist", ErrInvalid, *b.SupervisorID)
		}
	}
	return nil
}

// CreateBlock inserts a block and generates its rooms in one transaction.
// A block whose floor count or rooms per floor is zero or negative is still
// created and the returned warning explains why it has no rooms.
func (s *gormStore) CreateBlock(ctx context.Context, b *model.Block) (*booking.Warning, error) {
	var warning *booking.Warning
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := prepareBlock(tx, b); err != nil {
			return err
		}
		b.ID = 0
		if err := tx.Omit(clause.Associations).Create(b).Error; err != nil {
			return translate(err, "block", b.Name)
		}

		var rooms []model.Room
		rooms, warning = booking.PlanRooms(*b)
		if len(rooms) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(&rooms, roomBatchSize).Error; err != nil {
			return translate(err, "rooms of block", b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if warning != nil {
		s.log.Warn().Int64("block_id", b.ID).Str("kind", string(warning.Kind)).Msg(warning.Message)
	}
	return warning, nil
}

// UpdateBlock overwrites the editable fields of a block. Existing rooms are
// never regenerated; the married override is applied again.
func (s *gormStore) UpdateBlock(ctx context.Context, b *model.Block) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Block
		if err := tx.First(&existing, b.ID).Error; err != nil {
			return translate(err, "block", b.ID)
		}
		if err := prepareBlock(tx, b); err != nil {
			return err
		}
		err := tx.Model(&existing).
			Select("name", "dorm_id", "floor_count", "rooms_per_floor", "default_room_capacity",
				"room_cost", "supervisor_id", "is_active", "updated_at").
			Omit(clause.Associations).
			Updates(b).Error
		if err != nil {
			return translate(err, "block", b.ID)
		}
		return tx.First(b, b.ID).Error
	})
}

// GetBlock loads a block by primary key.
func (s *gormStore) GetBlock(ctx context.Context, id int64) (model.Block, error) {
	var b model.Block
	err := s.db.WithContext(ctx).First(&b, id).Error
	return b, translate(err, "block", id)
}

// ListBlocks returns blocks with their totals, optionally for a single dorm.
func (s *gormStore) ListBlocks(ctx context.Context, dormID *int64) ([]BlockView, error) {
	q := s.db.WithContext(ctx).Order("dorm_id").Order("name")
	if dormID != nil {
		q = q.Where("dorm_id = ?", *dormID)
	}
	var blocks []model.Block
	if err := q.Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}

	ids := make([]int64, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	out := make([]BlockView, 0, len(blocks))
	if len(ids) == 0 {
		return out, nil
	}
	totals, err := s.BlockTotals(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		out = append(out, BlockView{Block: b, Totals: totals[b.ID]})
	}
	return out, nil
}

// DeleteBlock removes a block that has no rooms left.
func (s *gormStore) DeleteBlock(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rooms int64
		if err := tx.Model(&model.Room{}).Where("block_id = ?", id).Count(&rooms).Error; err != nil {
			return fmt.Errorf("failed to count rooms of block %d: %w", id, err)
		}
		if rooms > 0 {
			return fmt.Errorf("block %d has %d rooms: %w", id, rooms, ErrProtected)
		}
		res := tx.Delete(&model.Block{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete block %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("block %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
