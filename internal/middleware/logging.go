package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
)

// maskedQueryParams 访问日志中不落明文的查询参数
var maskedQueryParams = []string{"token", "access_token"}

// LoggingConfig 访问日志配置
type LoggingConfig struct {
	Logger    *zap.Logger
	SkipPaths []string
	// SlowThreshold 超过该耗时的成功请求按 Warn 记录，0 表示关闭
	SlowThreshold time.Duration
}

// DefaultLoggingConfig 跳过探活与指标路径，慢请求阈值 1s
func DefaultLoggingConfig(log *zap.Logger) *LoggingConfig {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LoggingConfig{
		Logger:        log.Named("access"),
		SkipPaths:     []string{"/health", "/ping", "/ready", "/metrics"},
		SlowThreshold: time.Second,
	}
}

// Logging 每个请求一条访问日志：5xx 为 Error，4xx 与慢请求为 Warn
func Logging(cfg *LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			logger.RequestID(GetRequestID(c)),
			logger.Method(c.Request.Method),
			logger.Path(c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			logger.StatusCode(status),
			logger.Latency(latency),
			logger.IP(c.ClientIP()),
			zap.Int("bytes", max(c.Writer.Size(), 0)),
		}
		if q := maskQuery(c.Request.URL.Query()); q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}
		if userID := GetUserID(c); userID > 0 {
			fields = append(fields, logger.UserID(userID), zap.String("user_type", GetUserType(c)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= 500:
			cfg.Logger.Error("request failed", fields...)
		case status >= 400:
			cfg.Logger.Warn("request rejected", fields...)
		case cfg.SlowThreshold > 0 && latency >= cfg.SlowThreshold:
			cfg.Logger.Warn("slow request", fields...)
		default:
			cfg.Logger.Info("request", fields...)
		}
	}
}

func maskQuery(q url.Values) string {
	for _, key := range maskedQueryParams {
		if q.Has(key) {
			q.Set(key, "***")
		}
	}
	return q.Encode()
}
