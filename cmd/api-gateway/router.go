package main

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/dumeirei/hotel-booking-backend/docs"
	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/hotel-booking-backend/internal/common/middleware"
	adminHandler "github.com/dumeirei/hotel-booking-backend/internal/handler/admin"
	authHandler "github.com/dumeirei/hotel-booking-backend/internal/handler/auth"
	hotelHandler "github.com/dumeirei/hotel-booking-backend/internal/handler/hotel"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
)

// setupRouter 设置路由
func setupRouter(r *gin.Engine, cfg *config.Config, logger *zap.Logger, app *application) {
	// 初始化处理器
	authH := authHandler.NewHandler(app.authService)
	roomH := hotelHandler.NewRoomHandler(app.roomService, app.reviewService)
	bookingH := hotelHandler.NewBookingHandler(app.bookingService)

	adminAuthH := adminHandler.NewAuthHandler(app.adminAuthService)
	adminRoomH := adminHandler.NewRoomHandler(app.roomService)
	adminBookingH := adminHandler.NewBookingHandler(app.bookingService, app.hub)
	dashboardH := adminHandler.NewDashboardHandler(app.dashboardService)
	adminUserH := adminHandler.NewUserHandler(app.userAdminService)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(middleware.CORSConfigFrom(&cfg.CORS)))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", "/swagger/", cfg.Metrics.Path},
		}))
		r.Use(commonMiddleware.InjectTraceContext())
	}
	if app.metrics != nil {
		r.Use(app.metrics.Middleware())
	}
	r.Use(middleware.Logging(middleware.DefaultLoggingConfig(logger)))
	r.Use(middleware.RequestSizeLimiter(cfg.OSS.MaxFileSize + 1<<20))

	if cfg.RateLimit.Enabled {
		if app.redisClient != nil {
			r.Use(middleware.IPRateLimit(app.redisClient, cfg.RateLimit.RequestsPerSecond, time.Second))
		} else if app.localLimiter != nil {
			r.Use(app.localLimiter.Middleware())
		}
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(app.db, app.redisClient))

	if app.metrics != nil {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			auth := public.Group("/auth")
			auth.POST("/register", authH.Register)
			auth.POST("/login", authH.Login)
			auth.POST("/refresh", authH.RefreshToken)

			rooms := public.Group("/rooms")
			rooms.Use(middleware.OptionalAuth(app.jwtManager))
			rooms.GET("", roomH.ListRooms)
			rooms.GET("/available", roomH.SearchAvailable)
			rooms.GET("/:id", roomH.GetRoom)
			rooms.GET("/:id/availability", roomH.CheckAvailability)
			rooms.GET("/:id/reviews", roomH.ListReviews)
		}

		// 住客接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(app.jwtManager))
		{
			user.GET("/user/profile", authH.GetProfile)
			user.PUT("/user/profile", authH.UpdateProfile)

			user.POST("/rooms/:id/reviews", roomH.CreateReview)

			bookings := user.Group("/bookings")
			bookings.POST("", bookingH.CreateBooking)
			bookings.GET("", bookingH.ListMyBookings)
			bookings.GET("/:id", bookingH.GetBooking)
			bookings.POST("/:id/cancel", bookingH.CancelBooking)
			bookings.GET("/:id/qrcode", bookingH.GetVoucherQRCode)
		}
	}

	// 管理端路由组
	audit := commonMiddleware.NewOperationLogger(logger, "/api")
	admin := r.Group("/api/admin")
	admin.Use(audit.Log())
	{
		adminAuthH.RegisterRoutes(admin)

		protected := admin.Group("")
		protected.Use(middleware.AdminAuth(app.jwtManager))
		{
			adminAuthH.RegisterProtectedRoutes(protected)

			dashboard := protected.Group("/dashboard")
			dashboard.GET("/stats", dashboardH.GetStats)
			dashboard.GET("/analytics", dashboardH.GetAnalytics)
			dashboard.GET("/reports", dashboardH.GetReport)

			adminUserH.RegisterRoutes(protected)

			rooms := protected.Group("/rooms")
			rooms.GET("", adminRoomH.ListRooms)
			rooms.POST("", adminRoomH.CreateRoom)
			rooms.PUT("/:id", adminRoomH.UpdateRoom)
			rooms.PUT("/:id/status", adminRoomH.UpdateRoomStatus)
			rooms.DELETE("/:id", adminRoomH.DeleteRoom)
			rooms.POST("/:id/photo", adminRoomH.UploadPhoto)

			bookings := protected.Group("/bookings")
			bookings.GET("", adminBookingH.ListBookings)
			bookings.GET("/stream", adminBookingH.Stream)
			bookings.POST("/check-in", adminBookingH.CheckInByVoucher)
			bookings.GET("/:id", adminBookingH.GetBooking)
			bookings.PUT("/:id/status", adminBookingH.UpdateStatus)
			bookings.PUT("/:id/arrival", adminBookingH.UpdateArrival)
			bookings.POST("/:id/cancel", adminBookingH.CancelBooking)
		}
	}
}
