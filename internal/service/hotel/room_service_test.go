package hotel

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	appErrors "github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/lock"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/pkg/oss"
)

func newRoomService(t *testing.T) (*RoomService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewRoomService(
		db,
		repository.NewRoomRepository(db),
		repository.NewBookingRepository(db),
		lock.NewLocalLocker(time.Second),
		nil,
		nil,
	)
	return svc, db
}

func insertBooking(t *testing.T, db *gorm.DB, roomID int64, no, status string) {
	t.Helper()
	user := createUser(t, db, no+"@example.com")
	require.NoError(t, db.Create(&models.Booking{
		BookingNo: no, UserID: user.ID, RoomID: roomID,
		CheckIn: date("2025-01-01"), CheckOut: date("2025-01-02"),
		BookingStatus: status, ArrivalStatus: models.ArrivalStatusNotArrived,
	}).Error)
}

func TestRoomService_CreateAndGet(t *testing.T) {
	svc, _ := newRoomService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, &CreateRoomRequest{RoomNumber: "101", RoomType: "Single", Price: 1500, Description: "城景"})
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusAvailable, room.Status)

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "城景", got.Description)

	_, err = svc.CreateRoom(ctx, &CreateRoomRequest{RoomNumber: "101", RoomType: "Double", Price: 2000})
	assert.ErrorIs(t, err, appErrors.ErrRoomNumberExists)

	_, err = svc.CreateRoom(ctx, &CreateRoomRequest{RoomNumber: "102", RoomType: "Double", Price: 2000, Status: "Closed"})
	assert.ErrorIs(t, err, appErrors.ErrRoomStatusInvalid)

	_, err = svc.GetRoom(ctx, 999)
	assert.ErrorIs(t, err, appErrors.ErrRoomNotFound)
}

func TestRoomService_UpdateRoom(t *testing.T) {
	svc, db := newRoomService(t)
	ctx := context.Background()
	room := createRoom(t, db, "101", models.RoomStatusAvailable)
	createRoom(t, db, "102", models.RoomStatusAvailable)

	price := 1800.0
	status := models.RoomStatusMaintenance
	updated, err := svc.UpdateRoom(ctx, room.ID, &UpdateRoomRequest{Price: &price, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1800.0, updated.Price)
	assert.Equal(t, models.RoomStatusMaintenance, updated.Status)

	taken := "102"
	_, err = svc.UpdateRoom(ctx, room.ID, &UpdateRoomRequest{RoomNumber: &taken})
	assert.ErrorIs(t, err, appErrors.ErrRoomNumberExists)

	bad := "Closed"
	_, err = svc.UpdateRoom(ctx, room.ID, &UpdateRoomRequest{Status: &bad})
	assert.ErrorIs(t, err, appErrors.ErrRoomStatusInvalid)
}

func TestRoomService_UpdateRoomStatus(t *testing.T) {
	svc, db := newRoomService(t)
	ctx := context.Background()
	room := createRoom(t, db, "101", models.RoomStatusAvailable)

	info, err := svc.UpdateRoomStatus(ctx, room.ID, models.RoomStatusOccupied)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusOccupied, info.Status)

	_, err = svc.UpdateRoomStatus(ctx, room.ID, "occupied")
	assert.True(t, appErrors.IsKind(err, appErrors.KindInvalidStatus))

	_, err = svc.UpdateRoomStatus(ctx, 999, models.RoomStatusOccupied)
	assert.ErrorIs(t, err, appErrors.ErrRoomNotFound)
}

func TestRoomService_DeleteRoom(t *testing.T) {
	svc, db := newRoomService(t)
	ctx := context.Background()

	for _, status := range []string{models.BookingStatusPending, models.BookingStatusConfirmed} {
		t.Run("存在"+status+"预订", func(t *testing.T) {
			room := createRoom(t, db, "R"+status, models.RoomStatusAvailable)
			insertBooking(t, db, room.ID, "BK"+status, status)

			err := svc.DeleteRoom(ctx, room.ID)
			assert.ErrorIs(t, err, appErrors.ErrRoomHasActiveBookings)
			assert.True(t, appErrors.IsKind(err, appErrors.KindConflict))

			var count int64
			require.NoError(t, db.Model(&models.Room{}).Where("id = ?", room.ID).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})
	}

	t.Run("只有已取消预订", func(t *testing.T) {
		room := createRoom(t, db, "R-cancelled", models.RoomStatusAvailable)
		insertBooking(t, db, room.ID, "BK-cancelled", models.BookingStatusCancelled)

		require.NoError(t, svc.DeleteRoom(ctx, room.ID))
		_, err := svc.GetRoom(ctx, room.ID)
		assert.ErrorIs(t, err, appErrors.ErrRoomNotFound)

		var count int64
		require.NoError(t, db.Model(&models.Booking{}).Where("room_id = ?", room.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count, "已取消的预订保留")
	})

	t.Run("房间不存在", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteRoom(ctx, 999), appErrors.ErrRoomNotFound)
	})
}

func TestRoomService_SearchAvailable(t *testing.T) {
	svc, db := newRoomService(t)
	ctx := context.Background()

	free := createRoom(t, db, "101", models.RoomStatusAvailable)
	busy := createRoom(t, db, "102", models.RoomStatusAvailable)
	createRoom(t, db, "103", models.RoomStatusMaintenance)
	insertBooking(t, db, busy.ID, "BK1", models.BookingStatusConfirmed)

	rooms, err := svc.SearchAvailable(ctx, date("2025-01-01"), date("2025-01-03"), "")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, free.ID, rooms[0].ID)

	rooms, err = svc.SearchAvailable(ctx, date("2025-01-02"), date("2025-01-03"), "")
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	_, err = svc.SearchAvailable(ctx, date("2025-01-03"), date("2025-01-03"), "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidDateRange)

	result, err := svc.CheckAvailability(ctx, busy.ID, date("2025-01-01"), date("2025-01-02"))
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonDateConflict, result.Reason)
}

func TestRoomService_ListRooms(t *testing.T) {
	svc, _ := newRoomService(t)
	ctx := context.Background()

	n, err := svc.SeedSampleRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = svc.SeedSampleRooms(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "已有房间时不重复写入")

	rooms, total, err := svc.ListRooms(ctx, repository.RoomFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, "101", rooms[0].RoomNumber)

	_, total, err = svc.ListRooms(ctx, repository.RoomFilter{MinPrice: 3000}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, _, err = svc.ListRooms(ctx, repository.RoomFilter{Status: "bogus"}, 1, 10)
	assert.ErrorIs(t, err, appErrors.ErrRoomStatusInvalid)
}

func TestRoomService_Cache(t *testing.T) {
	svc, db := newRoomService(t)
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc.WithCache(client, time.Minute)

	room := createRoom(t, db, "101", models.RoomStatusAvailable)

	_, err = svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("room:1"))

	_, err = svc.UpdateRoomStatus(ctx, room.ID, models.RoomStatusMaintenance)
	require.NoError(t, err)
	assert.False(t, mr.Exists("room:1"), "写操作后清除缓存")

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusMaintenance, got.Status)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRoomService_UploadPhoto(t *testing.T) {
	svc, db := newRoomService(t)
	ctx := context.Background()
	room := createRoom(t, db, "101", models.RoomStatusAvailable)

	t.Run("未启用存储", func(t *testing.T) {
		_, err := svc.UploadPhoto(ctx, room.ID, "a.png", 10, bytes.NewReader(nil))
		assert.ErrorIs(t, err, appErrors.ErrStorageDisabled)
	})

	uploader := oss.NewMockUploader()
	svc.WithUploader(uploader, "rooms/", 1<<20)

	t.Run("上传成功", func(t *testing.T) {
		data := testPNG(t)
		info, err := svc.UploadPhoto(ctx, room.ID, "room.png", int64(len(data)), bytes.NewReader(data))
		require.NoError(t, err)
		assert.Contains(t, info.PhotoURL, "https://mock-oss.example.com/rooms/")
		assert.Equal(t, 1, uploader.Count())
	})

	t.Run("不是图片", func(t *testing.T) {
		_, err := svc.UploadPhoto(ctx, room.ID, "room.png", 5, bytes.NewReader([]byte("hello")))
		assert.True(t, appErrors.IsKind(err, appErrors.KindInvalidParams))
	})

	t.Run("扩展名不支持", func(t *testing.T) {
		_, err := svc.UploadPhoto(ctx, room.ID, "room.exe", 5, bytes.NewReader([]byte("hello")))
		assert.True(t, appErrors.IsKind(err, appErrors.KindInvalidParams))
	})

	t.Run("房间不存在", func(t *testing.T) {
		data := testPNG(t)
		_, err := svc.UploadPhoto(ctx, 999, "room.png", int64(len(data)), bytes.NewReader(data))
		assert.ErrorIs(t, err, appErrors.ErrRoomNotFound)
	})
}
