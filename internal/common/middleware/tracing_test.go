package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	r := gin.New()
	r.Use(Tracing(&TracingConfig{
		ServiceName: "tracing-test",
		SkipPaths:   []string{"/health", "/swagger/"},
	}))
	r.Use(InjectTraceContext())

	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/swagger/*any", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/rooms/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.GET("/api/v1/bookings/:id", func(c *gin.Context) {
		c.Set("user_id", int64(7))
		c.Set("user_type", "user")
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.GET("/api/v1/broken", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500})
	})
	r.GET("/api/v1/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 404})
	})
	return r, recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing(t *testing.T) {
	t.Run("房间路由记录房间ID", func(t *testing.T) {
		r, recorder := setupTracingRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/12", nil))
		require.Equal(t, http.StatusOK, w.Code)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "GET /api/v1/rooms/:id", spans[0].Name())
		attrs := spanAttrs(spans[0])
		assert.Equal(t, int64(12), attrs["room.id"].AsInt64())
		assert.Equal(t, int64(http.StatusOK), attrs["http.status_code"].AsInt64())
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("预订路由记录预订与用户", func(t *testing.T) {
		r, recorder := setupTracingRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/34", nil))
		require.Equal(t, http.StatusOK, w.Code)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		attrs := spanAttrs(spans[0])
		assert.Equal(t, int64(34), attrs["booking.id"].AsInt64())
		assert.Equal(t, int64(7), attrs["user.id"].AsInt64())
		assert.Equal(t, "user", attrs["user.role"].AsString())
		_, hasRoom := attrs["room.id"]
		assert.False(t, hasRoom)
	})

	t.Run("服务端错误标记span", func(t *testing.T) {
		r, recorder := setupTracingRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/broken", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("客户端错误不标记", func(t *testing.T) {
		r, recorder := setupTracingRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil))
		require.Equal(t, http.StatusNotFound, w.Code)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("跳过路径不产生span", func(t *testing.T) {
		r, recorder := setupTracingRouter(t)
		for _, path := range []string{"/health", "/swagger/index.html"} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Header().Get(TraceIDHeader))
		}
		assert.Empty(t, recorder.Ended())
	})

	t.Run("响应头携带追踪ID", func(t *testing.T) {
		r, recorder := setupTracingRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/1", nil))

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, spans[0].SpanContext().TraceID().String(), w.Header().Get(TraceIDHeader))
		assert.NotEmpty(t, w.Header().Get("traceparent"))
	})

	t.Run("延续上游追踪", func(t *testing.T) {
		r, recorder := setupTracingRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/1", nil)
		req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	})
}
