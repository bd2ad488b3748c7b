package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// RatingSummary 房间评分汇总
type RatingSummary struct {
	Average float64
	Total   int64
}

// ReviewRepository 评价仓储，同一用户对同一房间只有一条评价（唯一索引）
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) forRoom(ctx context.Context, roomID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Review{}).Where("room_id = ?", roomID)
}

// Create 创建评价，重复评价返回唯一约束错误
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListForRoom 按时间倒序分页，附带评价人姓名
func (r *ReviewRepository) ListForRoom(ctx context.Context, roomID int64, offset, limit int) ([]*models.Review, int64, error) {
	var total int64
	if err := r.forRoom(ctx, roomID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	reviews := make([]*models.Review, 0, limit)
	if total == 0 {
		return reviews, 0, nil
	}

	err := r.forRoom(ctx, roomID).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Summary 平均分与评价数，无评价时均为 0
func (r *ReviewRepository) Summary(ctx context.Context, roomID int64) (RatingSummary, error) {
	var s RatingSummary
	err := r.forRoom(ctx, roomID).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Scan(&s).Error
	return s, err
}

// HasReviewed 用户是否已评价过该房间
func (r *ReviewRepository) HasReviewed(ctx context.Context, userID, roomID int64) (bool, error) {
	var n int64
	err := r.forRoom(ctx, roomID).Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}
