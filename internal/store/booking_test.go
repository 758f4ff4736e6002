package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dormstay/internal/booking"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(gormDB, Options{Logger: zerolog.Nop()}), mock
}

var (
	studentCols = []string{"id", "first_name", "last_name", "student_code", "is_active", "payed_cost", "room_id"}
	roomCols    = []string{"id", "number", "floor_number", "cost", "capacity", "block_id", "is_active"}
)

const (
	lockStudentSQL = `SELECT \* FROM "students" WHERE "students"."id" = \$1 ORDER BY "students"."id" LIMIT \$[0-9]+ FOR UPDATE`
	shareWindowSQL = `SELECT \* FROM "booking_windows" WHERE "booking_windows"."id" = \$1 LIMIT \$[0-9]+ FOR SHARE`
	lockRoomSQL    = `SELECT \* FROM "rooms" WHERE "rooms"."id" = \$1 ORDER BY "rooms"."id" LIMIT \$[0-9]+ FOR UPDATE`
	countSQL       = `SELECT count\(\*\) FROM "students" WHERE room_id = \$1 AND id <> \$2`
	blockSQL       = `SELECT \* FROM "blocks" WHERE "blocks"."id" = \$1 ORDER BY "blocks"."id" LIMIT \$[0-9]+`
	dormSQL        = `SELECT \* FROM "dorms" WHERE "dorms"."id" = \$1 ORDER BY "dorms"."id" LIMIT \$[0-9]+`
	assignSQL      = `UPDATE "students" SET "room_id"=\$1,"updated_at"=\$2 WHERE id = \$3`
)

func TestAssignRoomLockOrder(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockStudentSQL).
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow(7, "Sara", "Karimi", "403123456", true, true, nil))
	mock.ExpectQuery(shareWindowSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "starts_at", "ends_at"}))
	mock.ExpectQuery(lockRoomSQL).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(3, 101, 1, 500, 2, 5, true))
	mock.ExpectQuery(countSQL).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(blockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dorm_id", "is_active"}).AddRow(5, "A", 9, true))
	mock.ExpectQuery(dormSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "gender", "is_active"}).AddRow(9, "North", "female", true))
	mock.ExpectExec(assignSQL).
		WithArgs(int64(3), sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a, err := s.AssignRoom(context.Background(), booking.AssignRequest{
		StudentID: 7, RoomID: 3, Now: time.Now(), AllowReassign: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Occupancy)
	assert.Equal(t, 101, a.Room.Number)
	assert.Equal(t, "A", a.BlockName)
	assert.Equal(t, "North", a.DormName)
	assert.Nil(t, a.PreviousRoomID)
	assert.False(t, a.Unchanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRoomDenials(t *testing.T) {
	t.Run("unpaid student is refused before the room is touched", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockStudentSQL).
			WillReturnRows(sqlmock.NewRows(studentCols).AddRow(7, "Sara", "Karimi", "403123456", true, false, nil))
		mock.ExpectQuery(shareWindowSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "starts_at", "ends_at"}))
		mock.ExpectRollback()

		_, err := s.AssignRoom(context.Background(), booking.AssignRequest{StudentID: 7, RoomID: 3, Now: time.Now()})
		var denial *booking.Denial
		require.True(t, errors.As(err, &denial))
		assert.True(t, denial.Has(booking.KindUnauthorized))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("full room", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockStudentSQL).
			WillReturnRows(sqlmock.NewRows(studentCols).AddRow(7, "Sara", "Karimi", "403123456", true, true, nil))
		mock.ExpectQuery(shareWindowSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "starts_at", "ends_at"}))
		mock.ExpectQuery(lockRoomSQL).
			WillReturnRows(sqlmock.NewRows(roomCols).AddRow(3, 101, 1, 500, 2, 5, true))
		mock.ExpectQuery(countSQL).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(blockSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dorm_id", "is_active"}).AddRow(5, "A", 9, true))
		mock.ExpectQuery(dormSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "gender", "is_active"}).AddRow(9, "North", "female", true))
		mock.ExpectRollback()

		_, err := s.AssignRoom(context.Background(), booking.AssignRequest{StudentID: 7, RoomID: 3, Now: time.Now()})
		var denial *booking.Denial
		require.True(t, errors.As(err, &denial))
		assert.True(t, denial.Has(booking.KindCapacityExceeded))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing room", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockStudentSQL).
			WillReturnRows(sqlmock.NewRows(studentCols).AddRow(7, "Sara", "Karimi", "403123456", true, false, nil))
		mock.ExpectQuery(lockRoomSQL).
			WillReturnRows(sqlmock.NewRows(roomCols))
		mock.ExpectRollback()

		_, err := s.AssignRoom(context.Background(), booking.AssignRequest{StudentID: 7, RoomID: 3, SkipEligibility: true, AllowReassign: true})
		var denial *booking.Denial
		require.True(t, errors.As(err, &denial))
		assert.True(t, denial.Has(booking.KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("holding a room without reassignment", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockStudentSQL).
			WillReturnRows(sqlmock.NewRows(studentCols).AddRow(7, "Sara", "Karimi", "403123456", true, true, 4))
		mock.ExpectQuery(shareWindowSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "starts_at", "ends_at"}))
		mock.ExpectRollback()

		_, err := s.AssignRoom(context.Background(), booking.AssignRequest{StudentID: 7, RoomID: 3, Now: time.Now()})
		var denial *booking.Denial
		require.True(t, errors.As(err, &denial))
		assert.True(t, denial.Has(booking.KindAlreadyAssigned))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAssignRoomUnknownStudent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockStudentSQL).WillReturnRows(sqlmock.NewRows(studentCols))
	mock.ExpectRollback()

	_, err := s.AssignRoom(context.Background(), booking.AssignRequest{StudentID: 7, RoomID: 3})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryable(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "plain error", err: errors.New("boom"), expected: false},
		{name: "postgres serialization failure", err: &pgconn.PgError{Code: "40001"}, expected: true},
		{name: "postgres unique violation", err: &pgconn.PgError{Code: "23505"}, expected: false},
		{name: "mysql deadlock", err: &mysql.MySQLError{Number: 1213}, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, retryable(tc.err))
		})
	}
}

func TestWithRetryGivesUpWithConflict(t *testing.T) {
	s := &gormStore{maxRetries: 3, log: zerolog.Nop()}

	calls := 0
	err := s.withRetry(context.Background(), "test", func() error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 3, calls)

	calls = 0
	err = s.withRetry(context.Background(), "test", func() error {
		calls++
		if calls < 2 {
			return &mysql.MySQLError{Number: 1205}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
