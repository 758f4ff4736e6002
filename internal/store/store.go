package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"dormstay/internal/booking"
	"dormstay/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrProtected is returned when a delete is refused because children still reference the record.
	ErrProtected = errors.New("record is still referenced")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalid is returned for values the store refuses to persist.
	ErrInvalid = errors.New("invalid value")
	// ErrConflict is returned when a transaction kept conflicting after all retries.
	ErrConflict = errors.New("transaction conflict")
)

// Store defines the interface for all database operations.
type Store interface {
	booking.Store

	DB() *gorm.DB

	ListDorms(ctx context.Context) ([]DormView, error)
	GetDorm(ctx context.Context, id int64) (model.Dorm, error)
	CreateDorm(ctx context.Context, d *model.Dorm) error
	UpdateDorm(ctx context.Context, d *model.Dorm) error
	DeleteDorm(ctx context.Context, id int64) error
	Directory(ctx context.Context) ([]DirectoryDorm, error)

	ListBlocks(ctx context.Context, dormID *int64) ([]BlockView, error)
	GetBlock(ctx context.Context, id int64) (model.Block, error)
	CreateBlock(ctx context.Context, b *model.Block) (*booking.Warning, error)
	UpdateBlock(ctx context.Context, b *model.Block) error
	DeleteBlock(ctx context.Context, id int64) error

	ListRooms(ctx context.Context, f RoomFilter) (RoomPage, error)
	GetRoomView(ctx context.Context, id int64) (RoomView, error)
	UpdateRoom(ctx context.Context, id int64, p RoomPatch) (model.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	RoomOccupants(ctx context.Context, roomID int64) ([]model.Student, error)

	RoomTotals(ctx context.Context, roomID int64) (booking.Totals, error)
	BlockTotals(ctx context.Context, blockIDs ...int64) (map[int64]booking.Totals, error)
	DormTotals(ctx context.Context, dormIDs ...int64) (map[int64]booking.Totals, error)

	CreateStudent(ctx context.Context, s *model.Student) error
	GetStudentByCode(ctx context.Context, studentCode string) (model.Student, error)
	CodesTaken(ctx context.Context, studentCode, nationalCode string) (studentTaken, nationalTaken bool, err error)
	ListStudents(ctx context.Context, f StudentFilter) (StudentPage, error)
	UpdateStudentFlags(ctx context.Context, id int64, p StudentPatch) (model.Student, error)
	VacateStudent(ctx context.Context, id int64) error
	DeleteStudent(ctx context.Context, id int64) error
	EnsureStaff(ctx context.Context, s *model.Student) (created bool, err error)

	SetBookingWindow(ctx context.Context, startsAt, endsAt *time.Time) (model.BookingWindow, error)
	ListBookingEvents(ctx context.Context, studentID *int64, page int) (EventPage, error)

	CreateSession(ctx context.Context, studentID int64, now time.Time, ttl time.Duration) (model.Session, error)
	StudentForSession(ctx context.Context, token string, now time.Time) (model.Student, error)
	DeleteSession(ctx context.Context, token string) error
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	ListNotices(ctx context.Context, limit int) ([]model.Notice, error)
	CreateNotice(ctx context.Context, n *model.Notice) error
	DeleteNotice(ctx context.Context, id int64) error

	PutSubscription(ctx context.Context, sub *model.PushSubscription) error
	ListSubscriptions(ctx context.Context, studentID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, studentID int64, endpoint string) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// Options tunes a gormStore.
type Options struct {
	PageSize   int
	MaxRetries int
	Logger     zerolog.Logger
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db         *gorm.DB
	pageSize   int
	maxRetries int
	log        zerolog.Logger
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &gormStore{
		db:         db,
		pageSize:   opts.PageSize,
		maxRetries: opts.MaxRetries,
		log:        opts.Logger,
	}
}

// DB exposes the underlying handle for health checks.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// translate maps gorm errors onto the store's sentinels.
func translate(err error, what string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("%s %v: %w", what, id, err)
}

func (s *gormStore) offset(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * s.pageSize
}

func pages(total int64, size int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
