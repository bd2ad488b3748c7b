// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器，nil 接收者上的记录方法为空操作
type Metrics struct {
	skipPath string

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	cacheHitsTotal       *prometheus.CounterVec
	cacheMissesTotal     *prometheus.CounterVec

	bookingsCreatedTotal     prometheus.Counter
	bookingConflictsTotal    *prometheus.CounterVec
	bookingTransitionsTotal  *prometheus.CounterVec
	bookingCancellationTotal *prometheus.CounterVec
	bookingsByStatus         *prometheus.GaugeVec
	roomsByStatus            *prometheus.GaugeVec
	lockWaitDuration         *prometheus.HistogramVec
	eventsPublishedTotal     *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// New 在指定注册器上创建指标收集器
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "hotel_booking"
	}
	factory := promauto.With(reg)

	return &Metrics{
		skipPath: "/metrics",
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		cacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		bookingsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_created_total",
				Help:      "Total number of bookings created",
			},
		),
		bookingConflictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_conflicts_total",
				Help:      "Total number of booking attempts rejected by date overlap",
			},
			[]string{"operation"},
		),
		bookingTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_status_transitions_total",
				Help:      "Total number of booking status transitions",
			},
			[]string{"from", "to"},
		),
		bookingCancellationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_cancellations_total",
				Help:      "Total number of booking cancellations",
			},
			[]string{"actor"},
		),
		bookingsByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bookings",
				Help:      "Number of bookings by status",
			},
			[]string{"status"},
		),
		roomsByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rooms",
				Help:      "Number of rooms by status",
			},
			[]string{"status"},
		),
		lockWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "room_lock_wait_seconds",
				Help:      "Time spent waiting for the per-room lock",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 3},
			},
			[]string{"result"},
		),
		eventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_events_published_total",
				Help:      "Total number of booking events handed to publishers",
			},
			[]string{"type", "result"},
		),
	}
}

// Init 初始化默认指标收集器并注册到全局注册器，重复调用返回同一实例
func Init(namespace string) *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(namespace, prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// GetMetrics 获取默认指标收集器
func GetMetrics() *Metrics {
	return Init("")
}

// SetSkipPath 设置中间件跳过的路径
func (m *Metrics) SetSkipPath(path string) {
	if path != "" {
		m.skipPath = path
	}
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == m.skipPath {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordBookingCreated 记录预订创建
func (m *Metrics) RecordBookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreatedTotal.Inc()
}

// RecordBookingConflict 记录日期冲突
func (m *Metrics) RecordBookingConflict(operation string) {
	if m == nil {
		return
	}
	m.bookingConflictsTotal.WithLabelValues(operation).Inc()
}

// RecordStatusTransition 记录预订状态变更
func (m *Metrics) RecordStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.bookingTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordCancellation 记录取消，actor 为 user 或 operator
func (m *Metrics) RecordCancellation(actor string) {
	if m == nil {
		return
	}
	m.bookingCancellationTotal.WithLabelValues(actor).Inc()
}

// SetBookingsByStatus 设置各状态预订数
func (m *Metrics) SetBookingsByStatus(status string, count float64) {
	if m == nil {
		return
	}
	m.bookingsByStatus.WithLabelValues(status).Set(count)
}

// SetRoomsByStatus 设置各状态房间数
func (m *Metrics) SetRoomsByStatus(status string, count float64) {
	if m == nil {
		return
	}
	m.roomsByStatus.WithLabelValues(status).Set(count)
}

// ObserveLockWait 记录等待房间锁的耗时
func (m *Metrics) ObserveLockWait(d time.Duration, acquired bool) {
	if m == nil {
		return
	}
	result := "acquired"
	if !acquired {
		result = "timeout"
	}
	m.lockWaitDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordEventPublished 记录事件发布结果
func (m *Metrics) RecordEventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}
