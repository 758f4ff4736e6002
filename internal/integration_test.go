package internal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dormstay/internal/booking"
	"dormstay/internal/db"
	"dormstay/internal/janitor"
	"dormstay/internal/metrics"
	"dormstay/internal/model"
	"dormstay/internal/store"
)

type env struct {
	store   store.Store
	booking *booking.Service
	now     time.Time
	seq     int
}

func setup(t *testing.T, allowReassign bool) *env {
	t.Helper()
	testDB, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to connect to the in-memory database")
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(testDB))

	e := &env{now: time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)}
	e.store = store.NewGormStore(testDB, store.Options{Logger: zerolog.Nop()})
	e.booking = booking.NewService(e.store, booking.Options{
		AllowReassign: allowReassign,
		Now:           func() time.Time { return e.now },
		Logger:        zerolog.Nop(),
	})
	return e
}

func (e *env) student(t *testing.T, payed bool) model.Student {
	t.Helper()
	e.seq++
	st := model.Student{
		FirstName:    "Test",
		LastName:     fmt.Sprintf("Student%d", e.seq),
		StudentCode:  fmt.Sprintf("403%06d", e.seq),
		NationalCode: fmt.Sprintf("%010d", e.seq),
		PasswordHash: "x",
		IsActive:     true,
		PayedCost:    payed,
	}
	require.NoError(t, e.store.CreateStudent(context.Background(), &st))
	return st
}

// rooms creates a dorm with a single block and returns its rooms keyed by number.
func (e *env) rooms(t *testing.T, floors, perFloor, capacity int) map[int]store.RoomView {
	t.Helper()
	ctx := context.Background()
	e.seq++
	d := model.Dorm{Name: fmt.Sprintf("Dorm %d", e.seq), Gender: model.GenderMale, IsActive: true}
	require.NoError(t, e.store.CreateDorm(ctx, &d))
	b := model.Block{Name: "A", DormID: d.ID, FloorCount: floors, RoomsPerFloor: perFloor, DefaultRoomCapacity: capacity, RoomCost: 900, IsActive: true}
	_, err := e.store.CreateBlock(ctx, &b)
	require.NoError(t, err)

	page, err := e.store.ListRooms(ctx, store.RoomFilter{BlockID: &b.ID})
	require.NoError(t, err)
	out := make(map[int]store.RoomView, len(page.Rooms))
	for _, r := range page.Rooms {
		out[r.Number] = r
	}
	return out
}

func (e *env) occupancy(t *testing.T, roomID int64) int64 {
	t.Helper()
	v, err := e.store.GetRoomView(context.Background(), roomID)
	require.NoError(t, err)
	return v.Occupancy
}

// TestConcurrentBookingOfLastPlace races two students for a single free place.
func TestConcurrentBookingOfLastPlace(t *testing.T) {
	e := setup(t, true)
	room := e.rooms(t, 1, 1, 1)[101]
	students := []model.Student{e.student(t, true), e.student(t, true)}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, len(students))
	for i, st := range students {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			<-start
			_, errs[i] = e.booking.Book(context.Background(), id, room.ID)
		}(i, st.ID)
	}
	close(start)
	wg.Wait()

	var booked, full int
	for _, err := range errs {
		var denial *booking.Denial
		switch {
		case err == nil:
			booked++
		case errors.As(err, &denial) && denial.Has(booking.KindCapacityExceeded):
			full++
		default:
			t.Fatalf("unexpected booking error: %v", err)
		}
	}
	assert.Equal(t, 1, booked)
	assert.Equal(t, 1, full)
	assert.Equal(t, int64(1), e.occupancy(t, room.ID))

	events, err := e.store.ListBookingEvents(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), events.Total)
}

// TestReassignment moves a student between rooms and checks both occupancies.
func TestReassignment(t *testing.T) {
	ctx := context.Background()
	e := setup(t, true)
	rooms := e.rooms(t, 1, 2, 2)
	st := e.student(t, true)

	a, err := e.booking.Book(ctx, st.ID, rooms[101].ID)
	require.NoError(t, err)
	assert.Nil(t, a.PreviousRoomID)
	assert.Equal(t, int64(1), e.occupancy(t, rooms[101].ID))

	a, err = e.booking.Book(ctx, st.ID, rooms[102].ID)
	require.NoError(t, err)
	require.NotNil(t, a.PreviousRoomID)
	assert.Equal(t, rooms[101].ID, *a.PreviousRoomID)
	assert.Equal(t, int64(0), e.occupancy(t, rooms[101].ID))
	assert.Equal(t, int64(1), e.occupancy(t, rooms[102].ID))

	t.Run("rebooking the same room is a no-op", func(t *testing.T) {
		a, err := e.booking.Book(ctx, st.ID, rooms[102].ID)
		require.NoError(t, err)
		assert.True(t, a.Unchanged)
		assert.Equal(t, int64(1), e.occupancy(t, rooms[102].ID))
	})

	t.Run("a full room denies without moving the student", func(t *testing.T) {
		other := e.student(t, true)
		another := e.student(t, true)
		_, err := e.booking.AssignByStaff(ctx, other.ID, rooms[101].ID)
		require.NoError(t, err)
		_, err = e.booking.AssignByStaff(ctx, another.ID, rooms[101].ID)
		require.NoError(t, err)

		_, err = e.booking.Book(ctx, st.ID, rooms[101].ID)
		var denial *booking.Denial
		require.True(t, errors.As(err, &denial))
		assert.True(t, denial.Has(booking.KindCapacityExceeded))

		got, err := e.store.GetStudent(ctx, st.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RoomID)
		assert.Equal(t, rooms[102].ID, *got.RoomID)
	})
}

func TestBookingGates(t *testing.T) {
	ctx := context.Background()
	e := setup(t, false)
	rooms := e.rooms(t, 1, 2, 2)
	unpaid := e.student(t, false)
	paid := e.student(t, true)

	start := e.now.Add(time.Hour)
	_, err := e.store.SetBookingWindow(ctx, &start, nil)
	require.NoError(t, err)

	_, err = e.booking.Book(ctx, unpaid.ID, rooms[101].ID)
	var denial *booking.Denial
	require.True(t, errors.As(err, &denial))
	assert.True(t, denial.Has(booking.KindUnauthorized))
	assert.True(t, denial.Has(booking.KindWindowNotOpen))

	e.now = start
	_, err = e.booking.Book(ctx, paid.ID, rooms[101].ID)
	require.NoError(t, err)

	_, err = e.booking.Book(ctx, paid.ID, rooms[102].ID)
	require.True(t, errors.As(err, &denial))
	assert.True(t, denial.Has(booking.KindAlreadyAssigned))

	t.Run("staff assignment skips the gates", func(t *testing.T) {
		_, err := e.booking.AssignByStaff(ctx, unpaid.ID, rooms[102].ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.occupancy(t, rooms[102].ID))
	})

	t.Run("inactive rooms cannot be booked", func(t *testing.T) {
		inactive := false
		_, err := e.store.UpdateRoom(ctx, rooms[102].ID, store.RoomPatch{IsActive: &inactive})
		require.NoError(t, err)
		late := e.student(t, true)

		_, err = e.booking.Book(ctx, late.ID, rooms[102].ID)
		require.True(t, errors.As(err, &denial))
		assert.True(t, denial.Has(booking.KindInvalidTarget))
	})
}

// TestDormTotalsAfterBookings checks the aggregated numbers the janitor exports.
func TestDormTotalsAfterBookings(t *testing.T) {
	ctx := context.Background()
	e := setup(t, true)
	rooms := e.rooms(t, 2, 2, 3)
	for i := 0; i < 5; i++ {
		st := e.student(t, true)
		number := []int{101, 102, 201}[i%3]
		_, err := e.booking.Book(ctx, st.ID, rooms[number].ID)
		require.NoError(t, err)
	}

	dorms, err := e.store.ListDorms(ctx)
	require.NoError(t, err)
	require.Len(t, dorms, 1)
	assert.Equal(t, booking.Totals{Capacity: 12, Population: 5}, dorms[0].Totals)

	j := janitor.NewService(e.store, time.Minute, zerolog.Nop())
	j.SweepOnce(ctx)

	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	exported := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "dormstay_dorm_capacity" && mf.GetName() != "dormstay_dorm_population" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			exported[mf.GetName()+"/"+labels["dorm_id"]] = m.GetGauge().GetValue()
		}
	}
	id := strconv.FormatInt(dorms[0].ID, 10)
	assert.Equal(t, map[string]float64{
		"dormstay_dorm_capacity/" + id:   12,
		"dormstay_dorm_population/" + id: 5,
	}, exported)
}
