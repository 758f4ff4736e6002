package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormstay/internal/booking"
	"dormstay/internal/model"
)

const freeCapacityExpr = "(rooms.capacity - COALESCE(occ.occupied, 0))"

// occupancy is the per-room student count, joined as "occ".
func occupancy(db *gorm.DB) *gorm.DB {
	return db.Table("students").
		Select("room_id, COUNT(*) AS occupied").
		Where("room_id IS NOT NULL").
		Group("room_id")
}

// roomScope builds the filtered room listing without ordering or paging.
func (s *gormStore) roomScope(ctx context.Context, f RoomFilter) *gorm.DB {
	db := s.db.WithContext(ctx)
	q := db.Table("rooms").
		Joins("JOIN blocks ON blocks.id = rooms.block_id").
		Joins("JOIN dorms ON dorms.id = blocks.dorm_id").
		Joins("LEFT JOIN (?) AS occ ON occ.room_id = rooms.id", occupancy(db))

	if !f.IncludeInactive {
		q = q.Where("rooms.is_active = ? AND blocks.is_active = ? AND dorms.is_active = ?", true, true, true)
	} else if f.Active != nil {
		q = q.Where("rooms.is_active = ?", *f.Active)
	}
	if f.DormID != nil {
		q = q.Where("blocks.dorm_id = ?", *f.DormID)
	}
	if f.BlockID != nil {
		q = q.Where("rooms.block_id = ?", *f.BlockID)
	}
	if f.Floor != nil {
		q = q.Where("rooms.floor_number = ?", *f.Floor)
	}
	return q
}

// roomOrder returns the ORDER BY terms: free capacity, then cost, then room
// number, with the primary key as a final tie-break across blocks.
func roomOrder(f RoomFilter) []string {
	var order []string
	if f.Free != SortNone {
		order = append(order, freeCapacityExpr+" "+f.Free.sql())
	}
	if f.Cost != SortNone {
		order = append(order, "rooms.cost "+f.Cost.sql())
	}
	return append(order, "rooms.number ASC", "rooms.id ASC")
}

const roomViewColumns = "rooms.id, rooms.number, rooms.floor_number, rooms.cost, rooms.capacity, rooms.is_active, " +
	"COALESCE(occ.occupied, 0) AS occupancy, rooms.block_id, blocks.name AS block_name, " +
	"blocks.dorm_id AS dorm_id, dorms.name AS dorm_name"

// ListRooms returns one page of rooms matching f.
func (s *gormStore) ListRooms(ctx context.Context, f RoomFilter) (RoomPage, error) {
	page, offset := s.offset(f.Page)
	out := RoomPage{Page: page, PageSize: s.pageSize, Rooms: []RoomView{}}

	if err := s.roomScope(ctx, f).Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("failed to count rooms: %w", err)
	}
	out.Pages = pages(out.Total, s.pageSize)
	if out.Total == 0 {
		return out, nil
	}

	q := s.roomScope(ctx, f).Select(roomViewColumns)
	for _, o := range roomOrder(f) {
		q = q.Order(o)
	}
	if err := q.Limit(s.pageSize).Offset(offset).Scan(&out.Rooms).Error; err != nil {
		return out, fmt.Errorf("failed to list rooms: %w", err)
	}
	return out, nil
}

// GetRoomView returns a single room with its location and occupancy,
// regardless of active flags.
func (s *gormStore) GetRoomView(ctx context.Context, id int64) (RoomView, error) {
	var views []RoomView
	err := s.roomScope(ctx, RoomFilter{IncludeInactive: true}).
		Select(roomViewColumns).
		Where("rooms.id = ?", id).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return RoomView{}, fmt.Errorf("failed to load room %d: %w", id, err)
	}
	if len(views) == 0 {
		return RoomView{}, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	return views[0], nil
}

// UpdateRoom applies an admin patch. Capacity may not drop below the current
// number of occupants.
func (s *gormStore) UpdateRoom(ctx context.Context, id int64, p RoomPatch) (model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, id).Error; err != nil {
			return translate(err, "room", id)
		}

		updates := map[string]any{}
		if p.Number != nil {
			if *p.Number <= 0 {
				return fmt.Errorf("%w: room number must be positive", ErrInvalid)
			}
			updates["number"] = *p.Number
		}
		if p.Cost != nil {
			if *p.Cost < 0 {
				return fmt.Errorf("%w: room cost must not be negative", ErrInvalid)
			}
			updates["cost"] = *p.Cost
		}
		if p.Capacity != nil {
			if *p.Capacity <= 0 {
				return fmt.Errorf("%w: room capacity must be positive", ErrInvalid)
			}
			var occupied int64
			if err := tx.Model(&model.Student{}).Where("room_id = ?", id).Count(&occupied).Error; err != nil {
				return fmt.Errorf("failed to count occupants of room %d: %w", id, err)
			}
			if int64(*p.Capacity) < occupied {
				return fmt.Errorf("%w: room %d has %d occupants, capacity %d is too small", ErrInvalid, id, occupied, *p.Capacity)
			}
			updates["capacity"] = *p.Capacity
		}
		if p.IsActive != nil {
			updates["is_active"] = *p.IsActive
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&room).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return translate(err, "room", id)
		}
		return tx.First(&room, id).Error
	})
	return room, err
}

// DeleteRoom removes a room and unplaces its occupants.
func (s *gormStore) DeleteRoom(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, id).Error; err != nil {
			return translate(err, "room", id)
		}
		err := tx.Model(&model.Student{}).Where("room_id = ?", id).Update("room_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to vacate room %d: %w", id, err)
		}
		return tx.Delete(&model.Room{}, id).Error
	})
}

// RoomOccupants lists the students currently placed in a room.
func (s *gormStore) RoomOccupants(ctx context.Context, roomID int64) ([]model.Student, error) {
	occupants := []model.Student{}
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).
		Order("last_name").Order("first_name").
		Find(&occupants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list occupants of room %d: %w", roomID, err)
	}
	return occupants, nil
}

// RoomTotals returns capacity and live occupancy of one room.
func (s *gormStore) RoomTotals(ctx context.Context, roomID int64) (booking.Totals, error) {
	v, err := s.GetRoomView(ctx, roomID)
	if err != nil {
		return booking.Totals{}, err
	}
	return booking.Totals{Capacity: int64(v.Capacity), Population: v.Occupancy}, nil
}

// BlockTotals aggregates room capacities and occupancy per block. Inactive
// rooms are included. Blocks without rooms report zero totals.
func (s *gormStore) BlockTotals(ctx context.Context, blockIDs ...int64) (map[int64]booking.Totals, error) {
	type row struct {
		BlockID    int64
		Capacity   int64
		Population int64
	}
	db := s.db.WithContext(ctx)
	q := db.Table("rooms").
		Select("rooms.block_id AS block_id, COALESCE(SUM(rooms.capacity), 0) AS capacity, "+
			"COALESCE(SUM(occ.occupied), 0) AS population").
		Joins("LEFT JOIN (?) AS occ ON occ.room_id = rooms.id", occupancy(db)).
		Group("rooms.block_id")
	if len(blockIDs) > 0 {
		q = q.Where("rooms.block_id IN ?", blockIDs)
	}

	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate block totals: %w", err)
	}

	out := make(map[int64]booking.Totals, len(blockIDs))
	for _, id := range blockIDs {
		out[id] = booking.Totals{}
	}
	for _, r := range rows {
		out[r.BlockID] = booking.Totals{Capacity: r.Capacity, Population: r.Population}
	}
	return out, nil
}

// DormTotals sums the block totals of each dorm.
func (s *gormStore) DormTotals(ctx context.Context, dormIDs ...int64) (map[int64]booking.Totals, error) {
	var blocks []model.Block
	q := s.db.WithContext(ctx).Select("id", "dorm_id")
	if len(dormIDs) > 0 {
		q = q.Where("dorm_id IN ?", dormIDs)
	}
	if err := q.Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}

	out := make(map[int64]booking.Totals, len(dormIDs))
	for _, id := range dormIDs {
		out[id] = booking.Totals{}
	}
	if len(blocks) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	perBlock, err := s.BlockTotals(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		out[b.DormID] = booking.Sum(out[b.DormID], perBlock[b.ID])
	}
	return out, nil
}
