// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// RoomRepository 房间仓储
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// Create 创建房间
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetByID 根据 ID 获取房间
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Update 更新房间
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// UpdateFields 更新指定字段
func (r *RoomRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatus 更新房间状态
func (r *RoomRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("status", status).Error
}

// UpdatePhoto 更新房间照片地址
func (r *RoomRepository) UpdatePhoto(ctx context.Context, id int64, photoURL string) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("photo_url", photoURL).Error
}

// RoomFilter 房间列表过滤条件
type RoomFilter struct {
	RoomType string
	Status   string
	MinPrice float64
	MaxPrice float64
}

func (f RoomFilter) apply(query *gorm.DB) *gorm.DB {
	if f.RoomType != "" {
		query = query.Where("room_type = ?", f.RoomType)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.MinPrice > 0 {
		query = query.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		query = query.Where("price <= ?", f.MaxPrice)
	}
	return query
}

// List 获取房间列表
func (r *RoomRepository) List(ctx context.Context, offset, limit int, filter RoomFilter) ([]*models.Room, int64, error) {
	var rooms []*models.Room
	var total int64

	query := filter.apply(r.db.WithContext(ctx).Model(&models.Room{}))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("room_number ASC").Offset(offset).Limit(limit).Find(&rooms).Error; err != nil {
		return nil, 0, err
	}

	return rooms, total, nil
}

// ListAvailable 获取指定日期区间内可预订的房间
// 房间状态须为 Available，且不存在与 [checkIn, checkOut) 相交的未取消预订
func (r *RoomRepository) ListAvailable(ctx context.Context, checkIn, checkOut time.Time, roomType string) ([]*models.Room, error) {
	var rooms []*models.Room

	busy := r.db.Model(&models.Booking{}).
		Select("1").
		Where("bookings.room_id = rooms.id").
		Where("bookings.booking_status <> ?", models.BookingStatusCancelled).
		Where("bookings.check_in < ? AND bookings.check_out > ?", checkOut, checkIn)

	query := r.db.WithContext(ctx).
		Where("status = ?", models.RoomStatusAvailable).
		Where("NOT EXISTS (?)", busy)
	if roomType != "" {
		query = query.Where("room_type = ?", roomType)
	}

	err := query.Order("room_number ASC").Find(&rooms).Error
	return rooms, err
}

// ExistsByRoomNumber 检查房间号是否存在，excludeID 大于 0 时排除该房间
func (r *RoomRepository) ExistsByRoomNumber(ctx context.Context, roomNumber string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Room{}).Where("room_number = ?", roomNumber)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Count 统计房间总数
func (r *RoomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Count(&count).Error
	return count, err
}

// CountByStatus 统计指定状态的房间数
func (r *RoomRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Delete 删除房间
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}
