package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
	"github.com/dumeirei/hotel-booking-backend/internal/common/lock"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/events"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	"github.com/dumeirei/hotel-booking-backend/internal/realtime"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/internal/scheduler"
	adminService "github.com/dumeirei/hotel-booking-backend/internal/service/admin"
	authService "github.com/dumeirei/hotel-booking-backend/internal/service/auth"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
	"github.com/dumeirei/hotel-booking-backend/internal/service/notification"
	"github.com/dumeirei/hotel-booking-backend/pkg/mqtt"
	"github.com/dumeirei/hotel-booking-backend/pkg/oss"
	"github.com/dumeirei/hotel-booking-backend/pkg/sms"
)

const (
	roomCacheTTL      = 5 * time.Minute
	dashboardCacheTTL = 30 * time.Second
)

// application 进程内组装好的全部组件
type application struct {
	log         *zap.Logger
	db          *gorm.DB
	redisClient *redis.Client
	metrics     *metrics.Metrics
	jwtManager  *jwt.Manager

	hub          *realtime.Hub
	publisher    events.Publisher
	localLimiter *middleware.LocalRateLimiter
	scheduler    *scheduler.Scheduler

	authService      *authService.AuthService
	adminAuthService *adminService.AdminAuthService
	dashboardService *adminService.DashboardService
	userAdminService *adminService.UserService
	roomService      *hotelService.RoomService
	bookingService   *hotelService.BookingService
	reviewService    *hotelService.ReviewService
}

func newApplication(cfg *config.Config, log *zap.Logger, db *gorm.DB, redisClient *redis.Client, m *metrics.Metrics) (*application, error) {
	app := &application{
		log:         log,
		db:          db,
		redisClient: redisClient,
		metrics:     m,
		jwtManager:  jwt.NewManagerFromConfig(&cfg.JWT),
	}

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	locker, err := newRoomLocker(&cfg.Booking, redisClient)
	if err != nil {
		return nil, err
	}

	app.hub = realtime.NewHub(cfg.CORS.AllowedOrigins, log)
	publisher, err := newPublisher(cfg, log, app.hub, userRepo)
	if err != nil {
		return nil, err
	}
	app.publisher = publisher

	// 初始化服务
	app.authService = authService.NewAuthService(userRepo, app.jwtManager, log)
	app.adminAuthService = adminService.NewAdminAuthService(adminRepo, app.jwtManager, log)
	app.dashboardService = adminService.NewDashboardService(userRepo, roomRepo, bookingRepo, m, log)
	app.userAdminService = adminService.NewUserService(userRepo, log)

	app.roomService = hotelService.NewRoomService(db, roomRepo, bookingRepo, locker, m, log)
	if cfg.OSS.Enabled {
		uploader, err := oss.NewAliyunUploader(&oss.AliyunConfig{
			Endpoint:        cfg.OSS.Endpoint,
			AccessKeyID:     cfg.OSS.AccessKeyID,
			AccessKeySecret: cfg.OSS.AccessKeySecret,
			BucketName:      cfg.OSS.Bucket,
			Domain:          cfg.OSS.CustomDomain,
		})
		if err != nil {
			return nil, fmt.Errorf("init oss uploader: %w", err)
		}
		app.roomService.WithUploader(uploader, cfg.OSS.UploadDir, cfg.OSS.MaxFileSize)
	}
	if redisClient != nil {
		app.roomService.WithCache(redisClient, roomCacheTTL)
		app.dashboardService.WithCache(redisClient, dashboardCacheTTL)
	}

	app.bookingService = hotelService.NewBookingService(
		db, bookingRepo, roomRepo, locker, publisher, m,
		hotelService.Policy{
			StrictTransitions:          cfg.Booking.StrictTransitions,
			RequireConfirmedForArrival: cfg.Booking.RequireConfirmedForArrival,
		},
		log,
	)
	app.reviewService = hotelService.NewReviewService(reviewRepo, roomRepo, bookingRepo)

	// Redis 未启用时使用进程内限流
	if cfg.RateLimit.Enabled && redisClient == nil {
		app.localLimiter = middleware.NewLocalRateLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	app.scheduler = newScheduler(cfg, log, bookingRepo, roomRepo, m, app.localLimiter)
	return app, nil
}

// newRoomLocker 按配置选择房间锁实现
func newRoomLocker(cfg *config.BookingConfig, redisClient *redis.Client) (lock.RoomLocker, error) {
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("booking.lock_backend=redis requires redis.enabled")
		}
		return lock.NewRedisLocker(redisClient, cfg.LockTTL, cfg.LockWait), nil
	case config.LockBackendLocal, "":
		return lock.NewLocalLocker(cfg.LockWait), nil
	default:
		return nil, fmt.Errorf("unknown booking.lock_backend %q", cfg.LockBackend)
	}
}

// newPublisher 组合事件发布器：实时推送与短信始终启用，外部消息通道按配置选择
func newPublisher(cfg *config.Config, log *zap.Logger, hub *realtime.Hub, userRepo *repository.UserRepository) (events.Publisher, error) {
	var sender sms.Sender
	if cfg.SMS.Enabled {
		aliyun, err := sms.NewAliyunSender(&sms.AliyunConfig{
			AccessKeyID:     cfg.SMS.AccessKeyID,
			AccessKeySecret: cfg.SMS.AccessKeySecret,
			SignName:        cfg.SMS.SignName,
			RegionID:        cfg.SMS.RegionID,
			Templates:       cfg.SMS.Templates,
		})
		if err != nil {
			return nil, fmt.Errorf("init sms sender: %w", err)
		}
		sender = aliyun
	} else {
		sender = sms.NewMockSender()
	}

	publishers := events.Multi{hub, notification.NewSMSNotifier(sender, userRepo, log)}

	switch cfg.Events.Driver {
	case config.EventsDriverAMQP:
		p, err := events.NewAMQPPublisher(&events.AMQPConfig{
			URL:      cfg.Events.AMQP.URL,
			Exchange: cfg.Events.AMQP.Exchange,
			Queue:    cfg.Events.AMQP.Queue,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("init amqp publisher: %w", err)
		}
		publishers = append(publishers, p)
	case config.EventsDriverMQTT:
		mc := cfg.Events.MQTT
		client := mqtt.NewClient(&mqtt.Config{
			Broker:         mc.Broker,
			Port:           mc.Port,
			ClientIDPrefix: mc.ClientIDPrefix,
			Username:       mc.Username,
			Password:       mc.Password,
			QoS:            mc.QoS,
			Retained:       mc.Retained,
			KeepAlive:      mc.KeepAlive,
			AutoReconnect:  mc.AutoReconnect,
		}, log)
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("connect mqtt broker: %w", err)
		}
		publishers = append(publishers, events.NewMQTTPublisher(client, mc.TopicPrefix))
	case config.EventsDriverNone, "":
	default:
		return nil, fmt.Errorf("unknown events.driver %q", cfg.Events.Driver)
	}

	log.Info("Booking event publishers ready",
		zap.String("driver", cfg.Events.Driver),
		zap.Bool("sms_enabled", cfg.SMS.Enabled),
	)
	return publishers, nil
}

func newScheduler(
	cfg *config.Config,
	log *zap.Logger,
	bookingRepo *repository.BookingRepository,
	roomRepo *repository.RoomRepository,
	m *metrics.Metrics,
	limiter *middleware.LocalRateLimiter,
) *scheduler.Scheduler {
	s := scheduler.NewScheduler(log)
	tasks := scheduler.NewTaskHandler(bookingRepo, roomRepo, m, log)

	if m != nil {
		s.AddTask("refresh_gauges", cfg.Scheduler.MetricsInterval, tasks.RefreshGauges)
	}
	if limiter != nil {
		s.AddTask("cleanup_rate_limiter", 5*time.Minute, tasks.CleanupTask("rate_limiter", limiter))
	}
	return s
}

// seed 初始化默认管理员与示例房间
func (a *application) seed(ctx context.Context, cfg *config.Config) error {
	created, err := a.adminAuthService.SeedDefaultAdmin(ctx, cfg.Admin.SeedUsername, cfg.Admin.SeedPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		a.log.Warn("Default admin created, change the password after first login",
			zap.String("username", cfg.Admin.SeedUsername))
	}

	if cfg.Database.SeedSampleData {
		n, err := a.roomService.SeedSampleRooms(ctx)
		if err != nil {
			return fmt.Errorf("seed rooms: %w", err)
		}
		if n > 0 {
			a.log.Info("Sample rooms seeded", zap.Int("count", n))
		}
	}
	return nil
}

func (a *application) close() {
	a.scheduler.Stop()
	if err := a.publisher.Close(); err != nil {
		a.log.Warn("Close event publishers failed", zap.Error(err))
	}
}
