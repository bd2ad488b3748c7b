package models

import "time"

// Admin 酒店后台操作员（前台、店长等）
type Admin struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	DisplayName  string     `gorm:"type:varchar(50)" json:"display_name"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         string     `gorm:"type:varchar(30);not null;default:'admin';index" json:"role"`
	Status       int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP  *string    `gorm:"type:varchar(45)" json:"last_login_ip,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// IsActive 账号是否启用
func (a *Admin) IsActive() bool {
	return a.Status == AdminStatusActive
}

// IsSuperAdmin 是否超级管理员
func (a *Admin) IsSuperAdmin() bool {
	return a.Role == RoleCodeSuperAdmin
}

const (
	AdminStatusDisabled = 0
	AdminStatusActive   = 1
)

// 操作员角色：super_admin 可管理其他操作员，admin 仅处理房间与预订
const (
	RoleCodeSuperAdmin = "super_admin"
	RoleCodeAdmin      = "admin"
)

// IsValidAdminRole 校验操作员角色
func IsValidAdminRole(role string) bool {
	switch role {
	case RoleCodeSuperAdmin, RoleCodeAdmin:
		return true
	}
	return false
}

// IsValidAdminStatus 校验操作员状态
func IsValidAdminStatus(status int8) bool {
	return status == AdminStatusDisabled || status == AdminStatusActive
}
