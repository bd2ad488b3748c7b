package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/dumeirei/hotel-booking-backend/internal/common/tracing"
)

// TraceIDHeader 响应头中的追踪 ID
const TraceIDHeader = "X-Trace-ID"

// TracingConfig 追踪中间件配置
type TracingConfig struct {
	ServiceName string
	// SkipPaths 精确匹配；以 / 结尾的项按前缀匹配（如 /swagger/）
	SkipPaths []string
}

func (cfg *TracingConfig) skip(path string) bool {
	for _, p := range cfg.SkipPaths {
		if p == "" {
			continue
		}
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// Tracing 为每个请求创建服务端 span
// 路由中的房间、预订 ID 与认证后的身份会写入 span 属性；仅 5xx 标记为错误
func Tracing(cfg *TracingConfig) gin.HandlerFunc {
	if cfg == nil {
		cfg = &TracingConfig{}
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "hotel-booking-backend"
	}

	tracer := otel.Tracer(cfg.ServiceName)
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		if cfg.skip(c.Request.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.HTTPTarget(c.Request.URL.Path),
				attribute.String("http.client_ip", c.ClientIP()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		span.SetAttributes(resourceAttributes(c, route)...)
		if requestID := c.Writer.Header().Get("X-Request-ID"); requestID != "" {
			span.SetAttributes(attribute.String("http.request_id", requestID))
		}

		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// resourceAttributes 提取路由参数与请求者身份
func resourceAttributes(c *gin.Context, route string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := getTargetID(c); id != nil {
		switch {
		case strings.Contains(route, "/bookings/:id"):
			attrs = append(attrs, tracing.WithBookingID(*id))
		case strings.Contains(route, "/rooms/:id"):
			attrs = append(attrs, tracing.WithRoomID(*id))
		}
	}
	if userID := c.GetInt64("user_id"); userID > 0 {
		attrs = append(attrs,
			tracing.WithUserID(userID),
			tracing.WithUserRole(c.GetString("user_type")),
		)
	}
	return attrs
}

// InjectTraceContext 在响应写出前注入追踪上下文与 X-Trace-ID
// 需注册在 Tracing 之后
func InjectTraceContext() gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		propagator.Inject(ctx, propagation.HeaderCarrier(c.Writer.Header()))
		if traceID := GetTraceID(c); traceID != "" {
			c.Header(TraceIDHeader, traceID)
		}
		c.Next()
	}
}

// GetTraceID 从上下文获取追踪 ID
func GetTraceID(c *gin.Context) string {
	sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
