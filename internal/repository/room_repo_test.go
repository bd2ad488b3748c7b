// Package repository 房间仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

func TestRoomRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := &models.Room{RoomNumber: "101", RoomType: "Single", Price: 1500, Status: models.RoomStatusAvailable}
	require.NoError(t, repo.Create(ctx, room))
	assert.NotZero(t, room.ID)

	t.Run("GetByID", func(t *testing.T) {
		found, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, "101", found.RoomNumber)
		assert.Equal(t, 1500.0, found.Price)
		assert.True(t, found.IsBookable())
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, room.ID, models.RoomStatusMaintenance))
		found, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoomStatusMaintenance, found.Status)
		assert.False(t, found.IsBookable())
	})

	t.Run("UpdatePhoto", func(t *testing.T) {
		require.NoError(t, repo.UpdatePhoto(ctx, room.ID, "https://cdn.example.com/rooms/101.jpg"))
		found, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		require.NotNil(t, found.PhotoURL)
		assert.Equal(t, "https://cdn.example.com/rooms/101.jpg", *found.PhotoURL)
	})

	t.Run("Update", func(t *testing.T) {
		found, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		found.Price = 1800
		require.NoError(t, repo.Update(ctx, found))

		again, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 1800.0, again.Price)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, room.ID))
		_, err := repo.GetByID(ctx, room.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestRoomRepository_ExistsByRoomNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, db, "101", "Single", 1500)

	exists, err := repo.ExistsByRoomNumber(ctx, "101", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByRoomNumber(ctx, "101", room.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByRoomNumber(ctx, "999", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoomRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	createTestRoom(t, db, "201", "Suite", 4000)
	createTestRoom(t, db, "101", "Single", 1500)
	r := createTestRoom(t, db, "102", "Double", 2500)
	require.NoError(t, repo.UpdateStatus(ctx, r.ID, models.RoomStatusOccupied))

	t.Run("按房间号排序", func(t *testing.T) {
		list, total, err := repo.List(ctx, 0, 10, RoomFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, "101", list[0].RoomNumber)
		assert.Equal(t, "201", list[2].RoomNumber)
	})

	t.Run("按类型", func(t *testing.T) {
		_, total, err := repo.List(ctx, 0, 10, RoomFilter{RoomType: "Suite"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("按状态", func(t *testing.T) {
		list, total, err := repo.List(ctx, 0, 10, RoomFilter{Status: models.RoomStatusOccupied})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "102", list[0].RoomNumber)
	})

	t.Run("按价格区间", func(t *testing.T) {
		_, total, err := repo.List(ctx, 0, 10, RoomFilter{MinPrice: 2000, MaxPrice: 3000})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("统计", func(t *testing.T) {
		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		occupied, err := repo.CountByStatus(ctx, models.RoomStatusOccupied)
		require.NoError(t, err)
		assert.Equal(t, int64(1), occupied)
	})
}

func TestRoomRepository_ListAvailable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	r101 := createTestRoom(t, db, "101", "Single", 1500)
	r102 := createTestRoom(t, db, "102", "Double", 2500)
	r103 := createTestRoom(t, db, "103", "Single", 1600)
	r104 := createTestRoom(t, db, "104", "Single", 1700)
	require.NoError(t, repo.UpdateStatus(ctx, r104.ID, models.RoomStatusMaintenance))

	createTestBooking(t, db, "BK001", 1, r101.ID, date(2025, 1, 1), date(2025, 1, 5), models.BookingStatusConfirmed)
	createTestBooking(t, db, "BK002", 1, r103.ID, date(2025, 1, 1), date(2025, 1, 5), models.BookingStatusCancelled)

	t.Run("排除冲突与非可用房间", func(t *testing.T) {
		rooms, err := repo.ListAvailable(ctx, date(2025, 1, 3), date(2025, 1, 4), "")
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, r102.ID, rooms[0].ID)
		assert.Equal(t, r103.ID, rooms[1].ID)
	})

	t.Run("首尾相接不冲突", func(t *testing.T) {
		rooms, err := repo.ListAvailable(ctx, date(2025, 1, 5), date(2025, 1, 6), "Single")
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, r101.ID, rooms[0].ID)
		assert.Equal(t, r103.ID, rooms[1].ID)
	})
}
