package models

import (
	"time"
)

// Room 房间模型
type Room struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomNumber  string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"room_number"`
	RoomType    string    `gorm:"type:varchar(30);index;not null" json:"room_type"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Status      string    `gorm:"type:varchar(20);index;not null;default:'Available'" json:"status"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	PhotoURL    *string   `gorm:"type:varchar(500)" json:"photo_url,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}

// RoomStatus 房间状态
const (
	RoomStatusAvailable   = "Available"   // 可预订
	RoomStatusOccupied    = "Occupied"    // 已入住
	RoomStatusMaintenance = "Maintenance" // 维护中
)

// IsValidRoomStatus 校验房间状态
func IsValidRoomStatus(status string) bool {
	switch status {
	case RoomStatusAvailable, RoomStatusOccupied, RoomStatusMaintenance:
		return true
	}
	return false
}

// IsBookable 房间是否处于可预订状态
func (r *Room) IsBookable() bool {
	return r.Status == RoomStatusAvailable
}
