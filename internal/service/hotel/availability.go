package hotel

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// 不可预订原因
const (
	ReasonRoomUnavailable = "room_unavailable"
	ReasonDateConflict    = "date_conflict"
)

// Availability 可用性检查结果
type Availability struct {
	RoomID                int64        `json:"room_id"`
	CheckIn               string       `json:"check_in"`
	CheckOut              string       `json:"check_out"`
	Nights                int          `json:"nights"`
	Available             bool         `json:"available"`
	Reason                string       `json:"reason,omitempty"`
	RoomStatus            string       `json:"room_status"`
	ConflictingBookingIDs []int64      `json:"conflicting_booking_ids,omitempty"`
	Room                  *models.Room `json:"-"`
}

// AvailabilityChecker 房间可用性检查
// 只读，不产生副作用；在事务内使用时须通过 WithTx 绑定事务
type AvailabilityChecker struct {
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
}

// NewAvailabilityChecker 创建可用性检查器
func NewAvailabilityChecker(roomRepo *repository.RoomRepository, bookingRepo *repository.BookingRepository) *AvailabilityChecker {
	return &AvailabilityChecker{
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
	}
}

// WithTx 返回绑定到事务的检查器
func (c *AvailabilityChecker) WithTx(tx *gorm.DB) *AvailabilityChecker {
	return &AvailabilityChecker{
		roomRepo:    c.roomRepo.WithTx(tx),
		bookingRepo: c.bookingRepo.WithTx(tx),
	}
}

// IsRoomAvailable 房间在 [checkIn, checkOut) 内是否可预订
// excludeBookingID 非空时忽略该预订自身
func (c *AvailabilityChecker) IsRoomAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeBookingID *int64) (bool, error) {
	result, err := c.Check(ctx, roomID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return false, err
	}
	return result.Available, nil
}

// Check 返回包含不可用原因与冲突预订的检查结果
func (c *AvailabilityChecker) Check(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeBookingID *int64) (*Availability, error) {
	checkIn, checkOut = utils.TruncateToDate(checkIn), utils.TruncateToDate(checkOut)
	if !checkIn.Before(checkOut) {
		return nil, errors.ErrInvalidDateRange
	}

	room, err := c.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := &Availability{
		RoomID:     roomID,
		CheckIn:    utils.FormatDate(checkIn),
		CheckOut:   utils.FormatDate(checkOut),
		Nights:     utils.NightsBetween(checkIn, checkOut),
		RoomStatus: room.Status,
		Room:       room,
	}

	overlapping, err := c.bookingRepo.FindOverlapping(ctx, roomID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, b := range overlapping {
		result.ConflictingBookingIDs = append(result.ConflictingBookingIDs, b.ID)
	}

	switch {
	case !room.IsBookable():
		result.Reason = ReasonRoomUnavailable
	case len(overlapping) > 0:
		result.Reason = ReasonDateConflict
	default:
		result.Available = true
	}
	return result, nil
}

// conflictError 将不可用结果转换为冲突错误
func conflictError(a *Availability) error {
	if a.Reason == ReasonRoomUnavailable {
		return errors.ErrRoomNotAvailable
	}
	return errors.ErrBookingConflict
}
