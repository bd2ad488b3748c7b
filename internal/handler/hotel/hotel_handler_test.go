package hotel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
	"github.com/dumeirei/hotel-booking-backend/internal/common/lock"
	"github.com/dumeirei/hotel-booking-backend/internal/events"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *jwt.Manager
	room   *models.Room
	guest  *models.User
	other  *models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret-key-hotel-api",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 2 * time.Hour,
		Issuer:            "test",
	})

	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	locker := lock.NewLocalLocker(5 * time.Second)

	roomSvc := hotelService.NewRoomService(db, roomRepo, bookingRepo, locker, nil, nil)
	reviewSvc := hotelService.NewReviewService(repository.NewReviewRepository(db), roomRepo, bookingRepo)
	bookingSvc := hotelService.NewBookingService(db, bookingRepo, roomRepo, locker, events.Noop{}, nil, hotelService.Policy{}, nil)

	roomH := NewRoomHandler(roomSvc, reviewSvc)
	bookingH := NewBookingHandler(bookingSvc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	{
		v1.GET("/rooms", roomH.ListRooms)
		v1.GET("/rooms/available", roomH.SearchAvailable)
		v1.GET("/rooms/:id", roomH.GetRoom)
		v1.GET("/rooms/:id/availability", roomH.CheckAvailability)
		v1.GET("/rooms/:id/reviews", roomH.ListReviews)

		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			user.POST("/rooms/:id/reviews", roomH.CreateReview)
			user.POST("/bookings", bookingH.CreateBooking)
			user.GET("/bookings", bookingH.ListMyBookings)
			user.GET("/bookings/:id", bookingH.GetBooking)
			user.POST("/bookings/:id/cancel", bookingH.CancelBooking)
			user.GET("/bookings/:id/qrcode", bookingH.GetVoucherQRCode)
		}
	}

	env := &testEnv{router: r, db: db, jwt: jwtManager}
	env.room = &models.Room{RoomNumber: "102", RoomType: "Double", Price: 2500, Status: models.RoomStatusAvailable}
	require.NoError(t, db.Create(env.room).Error)
	env.guest = &models.User{Name: "张三", Email: "guest@example.com", PasswordHash: "x", Status: models.UserStatusActive}
	require.NoError(t, db.Create(env.guest).Error)
	env.other = &models.User{Name: "李四", Email: "other@example.com", PasswordHash: "x", Status: models.UserStatusActive}
	require.NoError(t, db.Create(env.other).Error)
	return env
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	pair, err := e.jwt.GenerateTokenPair(userID, jwt.UserTypeUser, "")
	require.NoError(t, err)
	return pair.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Header().Get("Content-Type") != "image/png" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (e *testEnv) createBooking(t *testing.T, token, checkIn, checkOut string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/v1/bookings", token, map[string]interface{}{
		"room_id":   e.room.ID,
		"check_in":  checkIn,
		"check_out": checkOut,
	})
}

func TestBookingAPI_Lifecycle(t *testing.T) {
	env := setupTestEnv(t)
	guestToken := env.token(t, env.guest.ID)
	otherToken := env.token(t, env.other.ID)

	var booking hotelService.BookingInfo

	t.Run("创建预订", func(t *testing.T) {
		w, resp := env.createBooking(t, guestToken, "2025-01-05", "2025-01-10")
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(resp.Data, &booking))
		assert.Equal(t, models.BookingStatusPending, booking.BookingStatus)
		assert.Equal(t, models.ArrivalStatusNotArrived, booking.ArrivalStatus)
		assert.Equal(t, 5, booking.Nights)
		assert.NotEmpty(t, booking.BookingNo)
	})

	t.Run("重叠区间返回冲突", func(t *testing.T) {
		w, resp := env.createBooking(t, otherToken, "2025-01-08", "2025-01-12")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 8002, resp.Code)
	})

	t.Run("首尾相接可预订", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/rooms/%d/availability?check_in=2025-01-10&check_out=2025-01-15", env.room.ID)
		w, resp := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var availability hotelService.Availability
		require.NoError(t, json.Unmarshal(resp.Data, &availability))
		assert.True(t, availability.Available)
	})

	t.Run("他人预订不可见", func(t *testing.T) {
		w, _ := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", booking.ID), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("凭证二维码", func(t *testing.T) {
		w, _ := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d/qrcode", booking.ID), guestToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.NotZero(t, w.Body.Len())
	})

	t.Run("取消后可重新预订", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", booking.ID), guestToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", booking.ID), guestToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = env.createBooking(t, otherToken, "2025-01-05", "2025-01-10")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("我的预订列表", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/v1/bookings?status=Cancelled", guestToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(resp.Data), `"total":1`)
	})
}

func TestBookingAPI_Validation(t *testing.T) {
	env := setupTestEnv(t)
	token := env.token(t, env.guest.ID)

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		status   int
		code     int
	}{
		{"入住等于离店", "2025-02-01", "2025-02-01", http.StatusBadRequest, 8003},
		{"入住晚于离店", "2025-02-05", "2025-02-01", http.StatusBadRequest, 8003},
		{"日期格式错误", "02/01/2025", "2025-02-05", http.StatusBadRequest, 8003},
		{"不存在的日期", "2025-13-40", "2025-01-10", http.StatusBadRequest, 8003},
		{"离店日期非日期", "2025-02-01", "soon", http.StatusBadRequest, 8003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.createBooking(t, token, tt.checkIn, tt.checkOut)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Code)
		})
	}

	t.Run("未登录", func(t *testing.T) {
		w, _ := env.createBooking(t, "", "2025-02-01", "2025-02-03")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("房间不存在", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/v1/bookings", token, map[string]interface{}{
			"room_id":   9999,
			"check_in":  "2025-02-01",
			"check_out": "2025-02-03",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRoomAPI_SearchAvailable(t *testing.T) {
	env := setupTestEnv(t)
	token := env.token(t, env.guest.ID)

	w, _ := env.createBooking(t, token, "2025-03-01", "2025-03-04")
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := env.do(t, http.MethodGet, "/api/v1/rooms/available?check_in=2025-03-02&check_out=2025-03-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []hotelService.RoomInfo
	require.NoError(t, json.Unmarshal(resp.Data, &rooms))
	assert.Empty(t, rooms)

	w, resp = env.do(t, http.MethodGet, "/api/v1/rooms/available?check_in=2025-03-04&check_out=2025-03-06", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, env.room.ID, rooms[0].ID)

	w, _ = env.do(t, http.MethodGet, "/api/v1/rooms/available?check_in=2025-03-04", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/rooms/available?check_in=abc&check_out=2025-03-06", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 8003, resp.Code)
}

func TestRoomAPI_CheckAvailabilityBadDate(t *testing.T) {
	env := setupTestEnv(t)

	path := fmt.Sprintf("/api/v1/rooms/%d/availability?check_in=abc&check_out=2025-01-10", env.room.ID)
	w, resp := env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 8003, resp.Code)
}
