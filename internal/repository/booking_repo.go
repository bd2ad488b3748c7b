// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// BookingRepository 预订仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Create 创建预订
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID 根据 ID 获取预订
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails 根据 ID 获取预订（包含用户与房间）
func (r *BookingRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByBookingNo 根据预订号获取预订
func (r *BookingRepository) GetByBookingNo(ctx context.Context, bookingNo string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("booking_no = ?", bookingNo).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateFields 更新指定字段
func (r *BookingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(fields).Error
}

// overlapQuery 同一房间内与 [checkIn, checkOut) 相交的未取消预订
func (r *BookingRepository) overlapQuery(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID *int64) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("room_id = ?", roomID).
		Where("booking_status <> ?", models.BookingStatusCancelled).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	return query
}

// FindOverlapping 查询与指定日期区间冲突的预订
func (r *BookingRepository) FindOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID *int64) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.overlapQuery(ctx, roomID, checkIn, checkOut, excludeID).
		Order("check_in ASC, id ASC").
		Find(&bookings).Error
	return bookings, err
}

// ExistsOverlap 检查指定日期区间是否存在冲突预订
func (r *BookingRepository) ExistsOverlap(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID *int64) (bool, error) {
	var count int64
	err := r.overlapQuery(ctx, roomID, checkIn, checkOut, excludeID).Count(&count).Error
	return count > 0, err
}

// BookingFilter 预订列表过滤条件
type BookingFilter struct {
	UserID        int64
	RoomID        int64
	BookingStatus string
	ArrivalStatus string
	BookingNo     string
	CheckInFrom   *time.Time
	CheckInTo     *time.Time
}

// List 获取预订列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filter BookingFilter) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.RoomID > 0 {
		query = query.Where("room_id = ?", filter.RoomID)
	}
	if filter.BookingStatus != "" {
		query = query.Where("booking_status = ?", filter.BookingStatus)
	}
	if filter.ArrivalStatus != "" {
		query = query.Where("arrival_status = ?", filter.ArrivalStatus)
	}
	if filter.BookingNo != "" {
		query = query.Where("booking_no LIKE ?", "%"+filter.BookingNo+"%")
	}
	if filter.CheckInFrom != nil {
		query = query.Where("check_in >= ?", *filter.CheckInFrom)
	}
	if filter.CheckInTo != nil {
		query = query.Where("check_in <= ?", *filter.CheckInTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Room").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ListByUser 获取用户的预订列表
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, offset, limit int, status string) ([]*models.Booking, int64, error) {
	return r.List(ctx, offset, limit, BookingFilter{UserID: userID, BookingStatus: status})
}

// CountActiveByRoom 统计房间未取消的预订数
func (r *BookingRepository) CountActiveByRoom(ctx context.Context, roomID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("room_id = ?", roomID).
		Where("booking_status IN ?", models.ActiveBookingStatuses).
		Count(&count).Error
	return count, err
}

// CountByStatus 按预订状态分组计数
func (r *BookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.CountByStatusIn(ctx, StatsWindow{})
}

// CountByArrivalStatus 统计指定到店状态的预订数
func (r *BookingRepository) CountByArrivalStatus(ctx context.Context, arrivalStatus string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("arrival_status = ?", arrivalStatus).
		Count(&count).Error
	return count, err
}

// CountCheckInsOn 统计指定日期入住的未取消预订数
func (r *BookingRepository) CountCheckInsOn(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("check_in = ?", day).
		Where("booking_status <> ?", models.BookingStatusCancelled).
		Count(&count).Error
	return count, err
}

// ExistsConfirmedByUserAndRoom 检查用户在该房间是否有已确认的预订
func (r *BookingRepository) ExistsConfirmedByUserAndRoom(ctx context.Context, userID, roomID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("user_id = ? AND room_id = ?", userID, roomID).
		Where("booking_status = ?", models.BookingStatusConfirmed).
		Count(&count).Error
	return count > 0, err
}
