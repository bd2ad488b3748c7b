package models

import (
	"time"
)

// Booking 预订模型
// 入住、离店日期均为 UTC 零点的日历日期，区间为 [CheckIn, CheckOut)
type Booking struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNo     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"booking_no"`
	UserID        int64      `gorm:"index;not null" json:"user_id"`
	RoomID        int64      `gorm:"index:idx_bookings_room_dates,priority:1;not null" json:"room_id"`
	CheckIn       time.Time  `gorm:"column:check_in;type:date;index:idx_bookings_room_dates,priority:2;not null" json:"check_in"`
	CheckOut      time.Time  `gorm:"column:check_out;type:date;not null" json:"check_out"`
	BookingStatus string     `gorm:"type:varchar(20);index;not null;default:'Pending'" json:"booking_status"`
	ArrivalStatus string     `gorm:"type:varchar(20);not null;default:'Not Arrived'" json:"arrival_status"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	ArrivedAt     *time.Time `json:"arrived_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatus 预订状态
const (
	BookingStatusPending   = "Pending"   // 待确认
	BookingStatusConfirmed = "Confirmed" // 已确认
	BookingStatusCancelled = "Cancelled" // 已取消
)

// ArrivalStatus 到店状态
const (
	ArrivalStatusNotArrived = "Not Arrived"
	ArrivalStatusArrived    = "Arrived"
)

// ActiveBookingStatuses 占用房间的预订状态
var ActiveBookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

// IsValidBookingStatus 校验预订状态
func IsValidBookingStatus(status string) bool {
	switch status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// IsValidArrivalStatus 校验到店状态
func IsValidArrivalStatus(status string) bool {
	return status == ArrivalStatusNotArrived || status == ArrivalStatusArrived
}

// IsActive 预订是否占用房间
func (b *Booking) IsActive() bool {
	return b.BookingStatus != BookingStatusCancelled
}

// Nights 入住晚数
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}
