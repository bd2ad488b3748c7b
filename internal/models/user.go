// Package models 定义数据库模型
package models

import (
	"time"
)

// User 住客账号，邮箱为登录名
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(50);not null" json:"name"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Phone        *string   `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Status       int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// IsActive 账号是否正常
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// IsValidUserStatus 校验住客状态
func IsValidUserStatus(status int8) bool {
	return status == UserStatusDisabled || status == UserStatusActive
}

// AllModels 返回需要建表的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Admin{},
		&Room{},
		&Booking{},
		&Review{},
	}
}
