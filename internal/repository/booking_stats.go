package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// StatsWindow 按预订创建时间筛选的半开区间 [From, To)，零值表示不限
type StatsWindow struct {
	From time.Time
	To   time.Time
}

// DailyCount 某日新建的预订数
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// RoomTypeCount 房型的预订数
type RoomTypeCount struct {
	RoomType string `json:"room_type"`
	Count    int64  `json:"count"`
}

// CustomerCount 住客的预订数
type CustomerCount struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	BookingCount int64  `json:"booking_count"`
}

// WindowSummary 区间内预订汇总
type WindowSummary struct {
	TotalBookings  int64   `json:"total_bookings"`
	AvgStayNights  float64 `json:"avg_stay_nights"`
	ConfirmedValue float64 `json:"confirmed_value"`
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// nightsExpr 入住晚数的 SQL 表达式
func nightsExpr(db *gorm.DB) string {
	if isPostgres(db) {
		return "(bookings.check_out - bookings.check_in)"
	}
	return "ROUND(julianday(bookings.check_out) - julianday(bookings.check_in))"
}

// dayExpr 预订创建日期 (YYYY-MM-DD) 的 SQL 表达式
func dayExpr(db *gorm.DB) string {
	if isPostgres(db) {
		return "TO_CHAR(bookings.created_at, 'YYYY-MM-DD')"
	}
	return "DATE(bookings.created_at)"
}

func (r *BookingRepository) windowed(ctx context.Context, w StatsWindow) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if !w.From.IsZero() {
		query = query.Where("bookings.created_at >= ?", w.From)
	}
	if !w.To.IsZero() {
		query = query.Where("bookings.created_at < ?", w.To)
	}
	return query
}

// ConfirmedRevenue 已确认预订的房价 × 晚数合计
func (r *BookingRepository) ConfirmedRevenue(ctx context.Context, w StatsWindow) (float64, error) {
	var total float64
	err := r.windowed(ctx, w).
		Joins("JOIN rooms ON rooms.id = bookings.room_id").
		Where("bookings.booking_status = ?", models.BookingStatusConfirmed).
		Select("COALESCE(SUM(rooms.price * " + nightsExpr(r.db) + "), 0)").
		Scan(&total).Error
	return total, err
}

// CountByDay 按创建日期分组计数，日期升序
func (r *BookingRepository) CountByDay(ctx context.Context, w StatsWindow) ([]DailyCount, error) {
	day := dayExpr(r.db)
	rows := make([]DailyCount, 0)
	err := r.windowed(ctx, w).
		Select(day + " AS date, COUNT(*) AS count").
		Group(day).
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}

// PopularRoomTypes 未取消预订最多的房型
func (r *BookingRepository) PopularRoomTypes(ctx context.Context, w StatsWindow, limit int) ([]RoomTypeCount, error) {
	rows := make([]RoomTypeCount, 0, limit)
	err := r.windowed(ctx, w).
		Joins("JOIN rooms ON rooms.id = bookings.room_id").
		Where("bookings.booking_status <> ?", models.BookingStatusCancelled).
		Select("rooms.room_type AS room_type, COUNT(*) AS count").
		Group("rooms.room_type").
		Order("count DESC, room_type ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// TopCustomers 预订次数最多的住客
func (r *BookingRepository) TopCustomers(ctx context.Context, w StatsWindow, limit int) ([]CustomerCount, error) {
	rows := make([]CustomerCount, 0, limit)
	err := r.windowed(ctx, w).
		Joins("JOIN users ON users.id = bookings.user_id").
		Select("users.id AS user_id, users.name AS name, users.email AS email, COUNT(*) AS booking_count").
		Group("users.id, users.name, users.email").
		Order("booking_count DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// CountByStatusIn 区间内按预订状态分组计数
func (r *BookingRepository) CountByStatusIn(ctx context.Context, w StatsWindow) (map[string]int64, error) {
	var rows []struct {
		BookingStatus string
		Count         int64
	}
	err := r.windowed(ctx, w).
		Select("booking_status, COUNT(*) AS count").
		Group("booking_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.BookingStatus] = row.Count
	}
	return result, nil
}

// Summarize 区间内预订总数、平均入住晚数与已确认金额
func (r *BookingRepository) Summarize(ctx context.Context, w StatsWindow) (*WindowSummary, error) {
	summary := new(WindowSummary)
	err := r.windowed(ctx, w).
		Select("COUNT(*) AS total_bookings, COALESCE(AVG(" + nightsExpr(r.db) + "), 0) AS avg_stay_nights").
		Scan(summary).Error
	if err != nil {
		return nil, err
	}
	if summary.ConfirmedValue, err = r.ConfirmedRevenue(ctx, w); err != nil {
		return nil, err
	}
	return summary, nil
}
