package hotel

import (
	"context"
	stderrors "errors"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/cache"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/lock"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/pkg/oss"
)

const roomCacheName = "room"

// RoomService 房间目录服务
type RoomService struct {
	db          *gorm.DB
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
	checker     *AvailabilityChecker
	locker      lock.RoomLocker
	metrics     *metrics.Metrics
	log         *zap.Logger

	uploader    oss.Uploader
	uploadDir   string
	maxFileSize int64

	roomCache *cache.Typed[RoomInfo]
}

// NewRoomService 创建房间服务
func NewRoomService(
	db *gorm.DB,
	roomRepo *repository.RoomRepository,
	bookingRepo *repository.BookingRepository,
	locker lock.RoomLocker,
	m *metrics.Metrics,
	log *zap.Logger,
) *RoomService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomService{
		db:          db,
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		checker:     NewAvailabilityChecker(roomRepo, bookingRepo),
		locker:      locker,
		metrics:     m,
		log:         log.Named("room"),
		uploadDir:   "rooms/",
		maxFileSize: 5 << 20,
	}
}

// WithUploader 启用房间照片上传
func (s *RoomService) WithUploader(uploader oss.Uploader, uploadDir string, maxFileSize int64) *RoomService {
	s.uploader = uploader
	if uploadDir != "" {
		s.uploadDir = uploadDir
	}
	if maxFileSize > 0 {
		s.maxFileSize = maxFileSize
	}
	return s
}

// WithCache 启用房间详情缓存
func (s *RoomService) WithCache(rdb *redis.Client, ttl time.Duration) *RoomService {
	s.roomCache = cache.NewTyped[RoomInfo](rdb, ttl)
	return s
}

// RoomInfo 房间信息
type RoomInfo struct {
	ID          int64     `json:"id"`
	RoomNumber  string    `json:"room_number"`
	RoomType    string    `json:"room_type"`
	Price       float64   `json:"price"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	RoomNumber  string  `json:"room_number" binding:"required,max=20"`
	RoomType    string  `json:"room_type" binding:"required,max=30"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
}

// UpdateRoomRequest 更新房间请求，空字段不修改
type UpdateRoomRequest struct {
	RoomNumber  *string  `json:"room_number" binding:"omitempty,max=20"`
	RoomType    *string  `json:"room_type" binding:"omitempty,max=30"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Status      *string  `json:"status"`
	Description *string  `json:"description"`
}

// UpdateRoomStatusRequest 更新房间状态请求
type UpdateRoomStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *RoomService) cacheKey(id int64) string {
	return cache.BuildKey(cache.KeyPrefixRoom, strconv.FormatInt(id, 10))
}

func (s *RoomService) getCached(ctx context.Context, id int64) *RoomInfo {
	if !s.roomCache.Enabled() {
		return nil
	}
	info, err := s.roomCache.Get(ctx, s.cacheKey(id))
	if err != nil {
		s.log.Warn("room cache read failed", zap.Int64("room_id", id), zap.Error(err))
	}
	if info == nil {
		s.metrics.RecordCacheMiss(roomCacheName)
		return nil
	}
	s.metrics.RecordCacheHit(roomCacheName)
	return info
}

func (s *RoomService) setCached(ctx context.Context, info *RoomInfo) {
	if err := s.roomCache.Set(ctx, s.cacheKey(info.ID), info); err != nil {
		s.log.Warn("room cache write failed", zap.Int64("room_id", info.ID), zap.Error(err))
	}
}

func (s *RoomService) invalidate(ctx context.Context, id int64) {
	if err := s.roomCache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.log.Warn("room cache invalidate failed", zap.Int64("room_id", id), zap.Error(err))
	}
}

func (s *RoomService) loadRoom(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return room, nil
}

// GetRoom 获取房间详情
func (s *RoomService) GetRoom(ctx context.Context, id int64) (*RoomInfo, error) {
	if info := s.getCached(ctx, id); info != nil {
		return info, nil
	}
	room, err := s.loadRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	info := toRoomInfo(room)
	s.setCached(ctx, info)
	return info, nil
}

// ListRooms 获取房间列表
func (s *RoomService) ListRooms(ctx context.Context, filter repository.RoomFilter, page, pageSize int) ([]*RoomInfo, int64, error) {
	if filter.Status != "" && !models.IsValidRoomStatus(filter.Status) {
		return nil, 0, errors.ErrRoomStatusInvalid
	}
	p := utils.NewPagination(page, pageSize)

	rooms, total, err := s.roomRepo.List(ctx, p.Offset(), p.Limit(), filter)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return toRoomInfos(rooms), total, nil
}

// SearchAvailable 查询指定日期区间内可预订的房间
func (s *RoomService) SearchAvailable(ctx context.Context, checkIn, checkOut time.Time, roomType string) ([]*RoomInfo, error) {
	checkIn, checkOut = utils.TruncateToDate(checkIn), utils.TruncateToDate(checkOut)
	if !checkIn.Before(checkOut) {
		return nil, errors.ErrInvalidDateRange
	}
	rooms, err := s.roomRepo.ListAvailable(ctx, checkIn, checkOut, roomType)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return toRoomInfos(rooms), nil
}

// CheckAvailability 检查单个房间在指定日期区间的可用性
func (s *RoomService) CheckAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (*Availability, error) {
	return s.checker.Check(ctx, roomID, checkIn, checkOut, nil)
}

// CreateRoom 创建房间
func (s *RoomService) CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomInfo, error) {
	status := req.Status
	if status == "" {
		status = models.RoomStatusAvailable
	}
	if !models.IsValidRoomStatus(status) {
		return nil, errors.ErrRoomStatusInvalid
	}

	exists, err := s.roomRepo.ExistsByRoomNumber(ctx, req.RoomNumber, 0)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrRoomNumberExists
	}

	room := &models.Room{
		RoomNumber: req.RoomNumber,
		RoomType:   req.RoomType,
		Price:      req.Price,
		Status:     status,
	}
	if req.Description != "" {
		room.Description = utils.StringPtr(req.Description)
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.log.Info("room created", zap.Int64("room_id", room.ID), zap.String("room_number", room.RoomNumber))
	return toRoomInfo(room), nil
}

// UpdateRoom 更新房间信息
func (s *RoomService) UpdateRoom(ctx context.Context, id int64, req *UpdateRoomRequest) (*RoomInfo, error) {
	room, err := s.loadRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.RoomNumber != nil && *req.RoomNumber != room.RoomNumber {
		exists, err := s.roomRepo.ExistsByRoomNumber(ctx, *req.RoomNumber, id)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return nil, errors.ErrRoomNumberExists
		}
		fields["room_number"] = *req.RoomNumber
	}
	if req.RoomType != nil {
		fields["room_type"] = *req.RoomType
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Status != nil {
		if !models.IsValidRoomStatus(*req.Status) {
			return nil, errors.ErrRoomStatusInvalid
		}
		fields["status"] = *req.Status
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}

	if len(fields) > 0 {
		if err := s.roomRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		s.invalidate(ctx, id)
	}
	return s.reload(ctx, id)
}

// UpdateRoomStatus 修改房间状态
func (s *RoomService) UpdateRoomStatus(ctx context.Context, id int64, status string) (*RoomInfo, error) {
	if !models.IsValidRoomStatus(status) {
		return nil, errors.ErrRoomStatusInvalid
	}
	if _, err := s.loadRoom(ctx, id); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.roomRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx, id)

	s.log.Info("room status changed", zap.Int64("room_id", id), zap.String("status", status))
	return s.reload(ctx, id)
}

// DeleteRoom 删除房间
// 存在 Pending 或 Confirmed 预订时拒绝删除；已取消的预订保留
func (s *RoomService) DeleteRoom(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "room.delete", tracing.WithRoomID(id))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roomRepo := s.roomRepo.WithTx(tx)
		if _, err := roomRepo.GetByID(ctx, id); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrRoomNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}

		active, err := s.bookingRepo.WithTx(tx).CountActiveByRoom(ctx, id)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if active > 0 {
			return errors.ErrRoomHasActiveBookings
		}

		if err := roomRepo.Delete(ctx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.ErrDatabaseError.WithError(err)
		}
		tracing.SetError(ctx, err)
		return err
	}

	s.invalidate(ctx, id)
	s.log.Info("room deleted", zap.Int64("room_id", id))
	return nil
}

// UploadPhoto 上传房间照片并更新照片地址
func (s *RoomService) UploadPhoto(ctx context.Context, id int64, filename string, size int64, reader io.Reader) (*RoomInfo, error) {
	if s.uploader == nil {
		return nil, errors.ErrStorageDisabled
	}
	if _, err := s.loadRoom(ctx, id); err != nil {
		return nil, err
	}

	contentType, body, err := oss.ValidateImage(filename, size, s.maxFileSize, reader)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage(err.Error())
	}

	key := oss.GenerateObjectKey(s.uploadDir, filename)
	url, err := s.uploader.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, errors.ErrExternalService.WithError(err)
	}

	if err := s.roomRepo.UpdatePhoto(ctx, id, url); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx, id)

	s.log.Info("room photo uploaded", zap.Int64("room_id", id), zap.String("object_key", key))
	return s.reload(ctx, id)
}

// SampleRooms 初始样例房间
var SampleRooms = []CreateRoomRequest{
	{RoomNumber: "101", RoomType: "Single", Price: 1500, Description: "单人房，城景"},
	{RoomNumber: "102", RoomType: "Double", Price: 2500, Description: "双人房，带阳台"},
	{RoomNumber: "201", RoomType: "Suite", Price: 4000, Description: "套房，独立客厅"},
	{RoomNumber: "202", RoomType: "Deluxe", Price: 3200, Description: "豪华房，海景"},
}

// SeedSampleRooms 房间表为空时写入样例房间，返回写入数量
func (s *RoomService) SeedSampleRooms(ctx context.Context) (int, error) {
	count, err := s.roomRepo.Count(ctx)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return 0, nil
	}

	for i := range SampleRooms {
		if _, err := s.CreateRoom(ctx, &SampleRooms[i]); err != nil {
			return i, err
		}
	}
	return len(SampleRooms), nil
}

func (s *RoomService) reload(ctx context.Context, id int64) (*RoomInfo, error) {
	room, err := s.loadRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRoomInfo(room), nil
}

func toRoomInfo(r *models.Room) *RoomInfo {
	return &RoomInfo{
		ID:          r.ID,
		RoomNumber:  r.RoomNumber,
		RoomType:    r.RoomType,
		Price:       r.Price,
		Status:      r.Status,
		Description: utils.SafeString(r.Description),
		PhotoURL:    utils.SafeString(r.PhotoURL),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toRoomInfos(rooms []*models.Room) []*RoomInfo {
	list := make([]*RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		list = append(list, toRoomInfo(r))
	}
	return list
}
