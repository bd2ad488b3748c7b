package models

import (
	"time"
)

// Review 房间评价模型
type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_reviews_user_room,priority:1;not null" json:"user_id"`
	RoomID    int64     `gorm:"uniqueIndex:idx_reviews_user_room,priority:2;index;not null" json:"room_id"`
	Rating    int16     `gorm:"type:smallint;not null" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Review) TableName() string {
	return "reviews"
}

// 评分范围
const (
	ReviewRatingMin = 1
	ReviewRatingMax = 5
)
