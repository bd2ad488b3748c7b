package admin

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/cache"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

const dashboardCacheName = "dashboard"

// DashboardService 运营仪表盘服务
type DashboardService struct {
	userRepo    *repository.UserRepository
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
	metrics     *metrics.Metrics
	log         *zap.Logger

	statsCache *cache.Typed[Stats]
	now        func() time.Time
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(
	userRepo *repository.UserRepository,
	roomRepo *repository.RoomRepository,
	bookingRepo *repository.BookingRepository,
	m *metrics.Metrics,
	log *zap.Logger,
) *DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardService{
		userRepo:    userRepo,
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		metrics:     m,
		log:         log.Named("dashboard"),
		now:         time.Now,
	}
}

// WithCache 启用统计结果缓存
func (s *DashboardService) WithCache(rdb *redis.Client, ttl time.Duration) *DashboardService {
	s.statsCache = cache.NewTyped[Stats](rdb, ttl)
	return s
}

// Stats 仪表盘统计
type Stats struct {
	TotalUsers       int64            `json:"total_users"`
	TotalRooms       int64            `json:"total_rooms"`
	TotalBookings    int64            `json:"total_bookings"`
	BookingsByStatus map[string]int64 `json:"bookings_by_status"`
	ArrivedBookings  int64            `json:"arrived_bookings"`
	Revenue          float64          `json:"revenue"`
	OccupiedRooms    int64            `json:"occupied_rooms"`
	OccupancyRate    float64          `json:"occupancy_rate"`
	TodayCheckIns    int64            `json:"today_check_ins"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// GetStats 获取仪表盘统计
func (s *DashboardService) GetStats(ctx context.Context) (*Stats, error) {
	key := cache.BuildKey(cache.KeyPrefixDashboard, "stats")
	if stats := s.getCached(ctx, key); stats != nil {
		return stats, nil
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.setCached(ctx, key, stats)
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		BookingsByStatus: map[string]int64{
			models.BookingStatusPending:   0,
			models.BookingStatusConfirmed: 0,
			models.BookingStatusCancelled: 0,
		},
		GeneratedAt: s.now().UTC(),
	}

	var err error
	if stats.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalRooms, err = s.roomRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.OccupiedRooms, err = s.roomRepo.CountByStatus(ctx, models.RoomStatusOccupied); err != nil {
		return nil, err
	}

	byStatus, err := s.bookingRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for status, n := range byStatus {
		stats.BookingsByStatus[status] = n
		stats.TotalBookings += n
	}

	if stats.ArrivedBookings, err = s.bookingRepo.CountByArrivalStatus(ctx, models.ArrivalStatusArrived); err != nil {
		return nil, err
	}
	if stats.TodayCheckIns, err = s.bookingRepo.CountCheckInsOn(ctx, utils.TruncateToDate(s.now())); err != nil {
		return nil, err
	}

	revenue, err := s.bookingRepo.ConfirmedRevenue(ctx, repository.StatsWindow{})
	if err != nil {
		return nil, err
	}
	stats.Revenue = roundMoney(revenue)

	stats.OccupancyRate = occupancyRate(stats.OccupiedRooms, stats.TotalRooms)
	return stats, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func occupancyRate(occupied, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(total)*10000) / 10000
}

// 分析与报表的默认参数
const (
	TrendDays        = 30
	PopularTypeLimit = 5
	TopCustomerLimit = 5
	MaxReportDays    = 366
)

// Analytics 近 30 天趋势与热门房型
type Analytics struct {
	From             string                     `json:"from"`
	To               string                     `json:"to"`
	BookingTrend     []repository.DailyCount    `json:"booking_trend"`
	PopularRoomTypes []repository.RoomTypeCount `json:"popular_room_types"`
	GeneratedAt      time.Time                  `json:"generated_at"`
}

// GetAnalytics 统计含今天在内最近 30 天每日新建预订数，以及全部未取消预订的热门房型
func (s *DashboardService) GetAnalytics(ctx context.Context) (*Analytics, error) {
	today := utils.TruncateToDate(s.now())
	from := today.AddDate(0, 0, -(TrendDays - 1))
	window := repository.StatsWindow{From: from, To: today.AddDate(0, 0, 1)}

	trend, err := s.bookingRepo.CountByDay(ctx, window)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	popular, err := s.bookingRepo.PopularRoomTypes(ctx, repository.StatsWindow{}, PopularTypeLimit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &Analytics{
		From:             utils.FormatDate(from),
		To:               utils.FormatDate(today),
		BookingTrend:     trend,
		PopularRoomTypes: popular,
		GeneratedAt:      s.now().UTC(),
	}, nil
}

// Report 指定日期区间的预订汇总报表
type Report struct {
	From             string                     `json:"from"`
	To               string                     `json:"to"`
	TotalBookings    int64                      `json:"total_bookings"`
	BookingsByStatus map[string]int64           `json:"bookings_by_status"`
	AvgStayNights    float64                    `json:"avg_stay_nights"`
	Revenue          float64                    `json:"revenue"`
	AvgBookingValue  float64                    `json:"avg_booking_value"`
	OccupancyRate    float64                    `json:"occupancy_rate"`
	TopCustomers     []repository.CustomerCount `json:"top_customers"`
	PopularRoomTypes []repository.RoomTypeCount `json:"popular_room_types"`
}

// GetReport 按预订创建日期统计 [start, end] 区间，两端均含
// start 为空时取 end 之前 30 天，end 为空时取今天
func (s *DashboardService) GetReport(ctx context.Context, start, end *time.Time) (*Report, error) {
	to := utils.TruncateToDate(s.now())
	if end != nil {
		to = utils.TruncateToDate(*end)
	}
	from := to.AddDate(0, 0, -(TrendDays - 1))
	if start != nil {
		from = utils.TruncateToDate(*start)
	}
	if from.After(to) {
		return nil, errors.ErrInvalidDateRange.WithMessage("开始日期不能晚于结束日期")
	}
	if utils.NightsBetween(from, to) >= MaxReportDays {
		return nil, errors.ErrInvalidDateRange.WithMessage("报表区间不能超过一年")
	}
	window := repository.StatsWindow{From: from, To: to.AddDate(0, 0, 1)}

	report, err := s.buildReport(ctx, window)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	report.From = utils.FormatDate(from)
	report.To = utils.FormatDate(to)
	return report, nil
}

func (s *DashboardService) buildReport(ctx context.Context, window repository.StatsWindow) (*Report, error) {
	summary, err := s.bookingRepo.Summarize(ctx, window)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.bookingRepo.CountByStatusIn(ctx, window)
	if err != nil {
		return nil, err
	}
	customers, err := s.bookingRepo.TopCustomers(ctx, window, TopCustomerLimit)
	if err != nil {
		return nil, err
	}
	popular, err := s.bookingRepo.PopularRoomTypes(ctx, window, PopularTypeLimit)
	if err != nil {
		return nil, err
	}
	totalRooms, err := s.roomRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	occupied, err := s.roomRepo.CountByStatus(ctx, models.RoomStatusOccupied)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TotalBookings:    summary.TotalBookings,
		BookingsByStatus: byStatus,
		AvgStayNights:    math.Round(summary.AvgStayNights*100) / 100,
		Revenue:          roundMoney(summary.ConfirmedValue),
		OccupancyRate:    occupancyRate(occupied, totalRooms),
		TopCustomers:     customers,
		PopularRoomTypes: popular,
	}
	if confirmed := byStatus[models.BookingStatusConfirmed]; confirmed > 0 {
		report.AvgBookingValue = roundMoney(summary.ConfirmedValue / float64(confirmed))
	}
	return report, nil
}

func (s *DashboardService) getCached(ctx context.Context, key string) *Stats {
	if !s.statsCache.Enabled() {
		return nil
	}
	stats, err := s.statsCache.Get(ctx, key)
	if err != nil {
		s.log.Warn("dashboard cache read failed", zap.Error(err))
	}
	if stats == nil {
		s.metrics.RecordCacheMiss(dashboardCacheName)
		return nil
	}
	s.metrics.RecordCacheHit(dashboardCacheName)
	return stats
}

func (s *DashboardService) setCached(ctx context.Context, key string, stats *Stats) {
	if err := s.statsCache.Set(ctx, key, stats); err != nil {
		s.log.Warn("dashboard cache write failed", zap.Error(err))
	}
}
