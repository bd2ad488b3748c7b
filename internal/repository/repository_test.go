// Package repository 仓储层单元测试公共设施
package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func createTestRoom(t *testing.T, db *gorm.DB, number, roomType string, price float64) *models.Room {
	t.Helper()
	room := &models.Room{RoomNumber: number, RoomType: roomType, Price: price, Status: models.RoomStatusAvailable}
	require.NoError(t, db.Create(room).Error)
	return room
}

func createTestBooking(t *testing.T, db *gorm.DB, no string, userID, roomID int64, checkIn, checkOut time.Time, status string) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		BookingNo:     no,
		UserID:        userID,
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		BookingStatus: status,
		ArrivalStatus: models.ArrivalStatusNotArrived,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}
