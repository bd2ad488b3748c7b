package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// profileColumns 住客可自行修改的列
var profileColumns = map[string]struct{}{
	"name":  {},
	"phone": {},
}

// UserRepository 住客账号仓储，邮箱由调用方规范化为小写
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	if err := r.db.WithContext(ctx).Take(user, id).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail 按登录邮箱查找
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(models.User)
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// EmailRegistered 邮箱是否已注册
func (r *UserRepository) EmailRegistered(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

// GetContact 只读取通知所需的联系信息
func (r *UserRepository) GetContact(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	err := r.db.WithContext(ctx).
		Select("id", "name", "email", "phone", "status").
		Take(user, id).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile 更新资料，仅允许 name 与 phone；phone 为 nil 表示清空
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	for col := range changes {
		if _, ok := profileColumns[col]; !ok {
			return fmt.Errorf("column %q is not editable", col)
		}
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count 住客总数
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// UserFilter 住客列表筛选
type UserFilter struct {
	Status  *int8
	Keyword string // 姓名、邮箱或手机号模糊匹配
}

// List 分页查询住客，最新注册的在前
func (r *UserRepository) List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR email LIKE ? OR phone LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := make([]*models.User, 0, limit)
	if total == 0 {
		return users, 0, nil
	}
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateStatus 启用或禁用住客，记录不存在时返回 gorm.ErrRecordNotFound
func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
