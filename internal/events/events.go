// Package events 定义预订生命周期事件及其发布器
//
// 事件在数据库事务提交后发布，发布失败只记录日志，不影响请求结果。
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// 事件类型
const (
	TypeBookingCreated        = "booking.created"
	TypeBookingStatusChanged  = "booking.status_changed"
	TypeBookingCancelled      = "booking.cancelled"
	TypeBookingArrivalChanged = "booking.arrival_changed"
)

// 事件触发方
const (
	ActorUser     = "user"
	ActorOperator = "operator"
)

// BookingEvent 预订事件
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      int64     `json:"booking_id"`
	BookingNo      string    `json:"booking_no"`
	UserID         int64     `json:"user_id"`
	RoomID         int64     `json:"room_id"`
	CheckIn        string    `json:"check_in"`
	CheckOut       string    `json:"check_out"`
	BookingStatus  string    `json:"booking_status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	ArrivalStatus  string    `json:"arrival_status"`
	Actor          string    `json:"actor"`
	ActorID        int64     `json:"actor_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewBookingEvent 根据预订当前状态构造事件
func NewBookingEvent(eventType string, b *models.Booking, actor string, actorID int64) *BookingEvent {
	return &BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		BookingNo:     b.BookingNo,
		UserID:        b.UserID,
		RoomID:        b.RoomID,
		CheckIn:       utils.FormatDate(b.CheckIn),
		CheckOut:      utils.FormatDate(b.CheckOut),
		BookingStatus: b.BookingStatus,
		ArrivalStatus: b.ArrivalStatus,
		Actor:         actor,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher 事件发布器
type Publisher interface {
	Publish(ctx context.Context, event *BookingEvent) error
	Close() error
}

// Noop 丢弃所有事件
type Noop struct{}

// Publish 实现 Publisher
func (Noop) Publish(context.Context, *BookingEvent) error { return nil }

// Close 实现 Publisher
func (Noop) Close() error { return nil }

// Multi 依次发布到多个发布器，汇总全部错误
type Multi []Publisher

// Publish 实现 Publisher
func (m Multi) Publish(ctx context.Context, event *BookingEvent) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(ctx, event))
	}
	return err
}

// Close 实现 Publisher
func (m Multi) Close() error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Close())
	}
	return err
}

// Recorder 在内存中记录事件（用于测试）
type Recorder struct {
	mu     sync.Mutex
	events []*BookingEvent
}

// NewRecorder 创建事件记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish 实现 Publisher
func (r *Recorder) Publish(_ context.Context, event *BookingEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

// Close 实现 Publisher
func (r *Recorder) Close() error { return nil }

// Events 返回已记录事件的副本
func (r *Recorder) Events() []*BookingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*BookingEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types 返回已记录事件的类型序列
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
