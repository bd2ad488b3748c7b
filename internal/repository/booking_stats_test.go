package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

type statsFixture struct {
	repo   *BookingRepository
	single *models.Room
	suite  *models.Room
	alice  *models.User
	bob    *models.User
}

// seedStats 6 月 1 日两条、6 月 3 日两条、6 月 20 日一条预订
func seedStats(t *testing.T, db *gorm.DB) *statsFixture {
	t.Helper()
	f := &statsFixture{
		repo:   NewBookingRepository(db),
		single: createTestRoom(t, db, "101", "Single", 1000),
		suite:  createTestRoom(t, db, "301", "Suite", 3000),
		alice:  &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"},
		bob:    &models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x"},
	}
	require.NoError(t, db.Create(f.alice).Error)
	require.NoError(t, db.Create(f.bob).Error)

	at := func(day, hour int) time.Time { return time.Date(2025, 6, day, hour, 0, 0, 0, time.UTC) }
	rows := []struct {
		no      string
		user    *models.User
		room    *models.Room
		in, out time.Time
		status  string
		created time.Time
	}{
		{"S1", f.alice, f.single, date(2025, 7, 1), date(2025, 7, 3), models.BookingStatusConfirmed, at(1, 9)},
		{"S2", f.alice, f.suite, date(2025, 7, 1), date(2025, 7, 2), models.BookingStatusConfirmed, at(1, 18)},
		{"S3", f.bob, f.single, date(2025, 7, 5), date(2025, 7, 9), models.BookingStatusPending, at(3, 10)},
		{"S4", f.alice, f.suite, date(2025, 7, 5), date(2025, 7, 6), models.BookingStatusCancelled, at(3, 11)},
		{"S5", f.bob, f.single, date(2025, 8, 1), date(2025, 8, 4), models.BookingStatusConfirmed, at(20, 8)},
	}
	for _, row := range rows {
		b := &models.Booking{
			BookingNo:     row.no,
			UserID:        row.user.ID,
			RoomID:        row.room.ID,
			CheckIn:       row.in,
			CheckOut:      row.out,
			BookingStatus: row.status,
			ArrivalStatus: models.ArrivalStatusNotArrived,
			CreatedAt:     row.created,
		}
		require.NoError(t, db.Create(b).Error)
	}
	return f
}

func TestBookingStats_ConfirmedRevenue(t *testing.T) {
	f := seedStats(t, setupTestDB(t))
	ctx := context.Background()

	t.Run("全部", func(t *testing.T) {
		// S1 2×1000 + S2 1×3000 + S5 3×1000
		revenue, err := f.repo.ConfirmedRevenue(ctx, StatsWindow{})
		require.NoError(t, err)
		assert.InDelta(t, 8000.0, revenue, 0.001)
	})

	t.Run("按创建时间窗口", func(t *testing.T) {
		revenue, err := f.repo.ConfirmedRevenue(ctx, StatsWindow{From: date(2025, 6, 1), To: date(2025, 6, 2)})
		require.NoError(t, err)
		assert.InDelta(t, 5000.0, revenue, 0.001)
	})

	t.Run("空窗口", func(t *testing.T) {
		revenue, err := f.repo.ConfirmedRevenue(ctx, StatsWindow{From: date(2024, 1, 1), To: date(2024, 2, 1)})
		require.NoError(t, err)
		assert.Zero(t, revenue)
	})
}

func TestBookingStats_CountByDay(t *testing.T) {
	f := seedStats(t, setupTestDB(t))

	rows, err := f.repo.CountByDay(context.Background(), StatsWindow{From: date(2025, 6, 1), To: date(2025, 6, 10)})
	require.NoError(t, err)
	assert.Equal(t, []DailyCount{
		{Date: "2025-06-01", Count: 2},
		{Date: "2025-06-03", Count: 2},
	}, rows)
}

func TestBookingStats_PopularRoomTypes(t *testing.T) {
	f := seedStats(t, setupTestDB(t))

	rows, err := f.repo.PopularRoomTypes(context.Background(), StatsWindow{}, 5)
	require.NoError(t, err)
	assert.Equal(t, []RoomTypeCount{
		{RoomType: "Single", Count: 3},
		{RoomType: "Suite", Count: 1},
	}, rows, "已取消的预订不计入")

	rows, err = f.repo.PopularRoomTypes(context.Background(), StatsWindow{}, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBookingStats_TopCustomers(t *testing.T) {
	f := seedStats(t, setupTestDB(t))
	ctx := context.Background()

	rows, err := f.repo.TopCustomers(ctx, StatsWindow{}, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, CustomerCount{UserID: f.alice.ID, Name: "Alice", Email: "alice@example.com", BookingCount: 3}, rows[0])
	assert.Equal(t, int64(2), rows[1].BookingCount)

	rows, err = f.repo.TopCustomers(ctx, StatsWindow{From: date(2025, 6, 3)}, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, f.bob.ID, rows[0].UserID)
}

func TestBookingStats_Summarize(t *testing.T) {
	f := seedStats(t, setupTestDB(t))
	ctx := context.Background()

	summary, err := f.repo.Summarize(ctx, StatsWindow{From: date(2025, 6, 1), To: date(2025, 6, 4)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalBookings)
	// (2 + 1 + 4 + 1) / 4
	assert.InDelta(t, 2.0, summary.AvgStayNights, 0.001)
	assert.InDelta(t, 5000.0, summary.ConfirmedValue, 0.001)

	byStatus, err := f.repo.CountByStatusIn(ctx, StatsWindow{From: date(2025, 6, 1), To: date(2025, 6, 4)})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		models.BookingStatusConfirmed: 2,
		models.BookingStatusPending:   1,
		models.BookingStatusCancelled: 1,
	}, byStatus)

	empty, err := f.repo.Summarize(ctx, StatsWindow{From: date(2030, 1, 1)})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalBookings)
	assert.Zero(t, empty.AvgStayNights)
}
