// Package repository 提供数据访问层
package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// AdminFilter 操作员列表筛选
type AdminFilter struct {
	Role    string
	Status  *int8
	Keyword string // 用户名或显示名模糊匹配
}

// AdminRepository 后台操作员仓储
// 用户名按小写存储与比较
type AdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建操作员仓储
func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Create 创建操作员
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	admin.Username = normalizeUsername(admin.Username)
	return r.db.WithContext(ctx).Create(admin).Error
}

// GetByID 根据 ID 获取操作员
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	admin := new(models.Admin)
	if err := r.db.WithContext(ctx).Take(admin, id).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// FindByUsername 按用户名查找，忽略大小写与首尾空白
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	admin := new(models.Admin)
	err := r.db.WithContext(ctx).
		Where("username = ?", normalizeUsername(username)).
		Take(admin).Error
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// UsernameTaken 用户名是否已被占用
func (r *AdminRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).
		Where("username = ?", normalizeUsername(username)).
		Count(&n).Error
	return n > 0, err
}

// SetStatus 启用或禁用操作员，记录不存在时返回 gorm.ErrRecordNotFound
func (r *AdminRepository) SetStatus(ctx context.Context, id int64, status int8) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"status": status})
}

// SetPasswordHash 更新密码哈希
func (r *AdminRepository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password_hash": hash})
}

// RecordLogin 记录最近一次登录
func (r *AdminRepository) RecordLogin(ctx context.Context, id int64, ip string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"last_login_at": at,
		"last_login_ip": ip,
	})
}

func (r *AdminRepository) updateColumns(ctx context.Context, id int64, cols map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 分页查询操作员，最新创建的在前
func (r *AdminRepository) List(ctx context.Context, filter AdminFilter, offset, limit int) ([]*models.Admin, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Admin{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("(username LIKE ? OR LOWER(display_name) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	admins := make([]*models.Admin, 0, limit)
	if total == 0 {
		return admins, 0, nil
	}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&admins).Error; err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

// Count 操作员总数
func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).Count(&n).Error
	return n, err
}

// CountActiveSuperAdmins 启用状态的超级管理员数量
func (r *AdminRepository) CountActiveSuperAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).
		Where("role = ? AND status = ?", models.RoleCodeSuperAdmin, models.AdminStatusActive).
		Count(&n).Error
	return n, err
}
