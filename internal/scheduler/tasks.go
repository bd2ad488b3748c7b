package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// Cleaner 可定期清理的组件（如进程内限流器）
type Cleaner interface {
	Cleanup() int
}

// TaskHandler 任务处理器
type TaskHandler struct {
	bookingRepo *repository.BookingRepository
	roomRepo    *repository.RoomRepository
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	bookingRepo *repository.BookingRepository,
	roomRepo *repository.RoomRepository,
	m *metrics.Metrics,
	log *zap.Logger,
) *TaskHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskHandler{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		metrics:     m,
		log:         log.Named("tasks"),
	}
}

// RefreshGauges 刷新预订与房间状态分布指标
func (h *TaskHandler) RefreshGauges(ctx context.Context) error {
	byStatus, err := h.bookingRepo.CountByStatus(ctx)
	if err != nil {
		return err
	}
	for _, status := range []string{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusCancelled,
	} {
		h.metrics.SetBookingsByStatus(status, float64(byStatus[status]))
	}

	for _, status := range []string{
		models.RoomStatusAvailable,
		models.RoomStatusOccupied,
		models.RoomStatusMaintenance,
	} {
		count, err := h.roomRepo.CountByStatus(ctx, status)
		if err != nil {
			return err
		}
		h.metrics.SetRoomsByStatus(status, float64(count))
	}
	return nil
}

// CleanupTask 返回清理任务
func (h *TaskHandler) CleanupTask(name string, c Cleaner) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if removed := c.Cleanup(); removed > 0 {
			h.log.Debug("cleanup", zap.String("target", name), zap.Int("removed", removed))
		}
		return nil
	}
}
