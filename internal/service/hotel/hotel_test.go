package hotel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/common/lock"
	"github.com/dumeirei/hotel-booking-backend/internal/events"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func date(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func createRoom(t *testing.T, db *gorm.DB, number, status string) *models.Room {
	t.Helper()
	room := &models.Room{RoomNumber: number, RoomType: "Double", Price: 2500, Status: status}
	require.NoError(t, db.Create(room).Error)
	return room
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "住客", Email: email, PasswordHash: "x", Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)
	return user
}

type bookingFixture struct {
	db       *gorm.DB
	svc      *BookingService
	recorder *events.Recorder
	room     *models.Room
	guest    *models.User
	other    *models.User
}

func newBookingFixture(t *testing.T, policy Policy) *bookingFixture {
	t.Helper()
	db := setupTestDB(t)
	recorder := events.NewRecorder()
	svc := NewBookingService(
		db,
		repository.NewBookingRepository(db),
		repository.NewRoomRepository(db),
		lock.NewLocalLocker(5*time.Second),
		recorder,
		nil,
		policy,
		nil,
	)
	return &bookingFixture{
		db:       db,
		svc:      svc,
		recorder: recorder,
		room:     createRoom(t, db, "101", models.RoomStatusAvailable),
		guest:    createUser(t, db, "guest@example.com"),
		other:    createUser(t, db, "other@example.com"),
	}
}

func (f *bookingFixture) book(t *testing.T, in, out string) *BookingInfo {
	t.Helper()
	info, err := f.svc.CreateBooking(context.Background(), f.guest.ID, f.room.ID, date(in), date(out))
	require.NoError(t, err)
	return info
}

func (f *bookingFixture) status(t *testing.T, id int64) *models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, f.db.First(&b, id).Error)
	return &b
}
