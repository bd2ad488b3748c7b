// Package tracing 安装全局 OpenTelemetry TracerProvider 并提供业务 span 辅助函数
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName  = "hotel-booking-backend"
	instrumentationName = "github.com/dumeirei/hotel-booking-backend"
)

// Config 追踪配置
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint OTLP gRPC 地址，为空时输出到 stdout
	Endpoint   string
	SampleRate float64
	Enabled    bool
}

// Provider 已安装的 SDK provider；未启用追踪时为空操作
type Provider struct {
	sdk *sdktrace.TracerProvider
}

// Init 按配置创建导出器并安装全局 provider
func Init(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = &Config{SampleRate: 1, Enabled: true}
	}
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	exporter, err := newExporter(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	return Install(cfg, sdktrace.NewBatchSpanProcessor(exporter))
}

// Install 以给定的 span 处理器安装全局 provider 与 W3C 传播器
func Install(cfg *Config, processor sdktrace.SpanProcessor) (*Provider, error) {
	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{sdk: sdk}, nil
}

func newExporter(endpoint string) (sdktrace.SpanExporter, error) {
	if endpoint == "" {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout exporter: %w", err)
		}
		return exporter, nil
	}

	exporter, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter %s: %w", endpoint, err)
	}
	return exporter, nil
}

// newSampler 根 span 按比例采样，子 span 跟随上游决定
func newSampler(rate float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case rate >= 1:
		root = sdktrace.AlwaysSample()
	case rate <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}

// Shutdown 导出剩余 span 并关闭 provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// StartSpan 通过全局 provider 开始 span，未安装时为空操作
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// SetError 记录错误并标记当前 span
func SetError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes 为当前 span 追加属性
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// 业务属性键
const (
	AttrUserID        = attribute.Key("user.id")
	AttrUserRole      = attribute.Key("user.role")
	AttrRoomID        = attribute.Key("room.id")
	AttrBookingID     = attribute.Key("booking.id")
	AttrBookingStatus = attribute.Key("booking.status")
)

func WithUserID(id int64) attribute.KeyValue { return AttrUserID.Int64(id) }

func WithUserRole(role string) attribute.KeyValue { return AttrUserRole.String(role) }

func WithRoomID(id int64) attribute.KeyValue { return AttrRoomID.Int64(id) }

func WithBookingID(id int64) attribute.KeyValue { return AttrBookingID.Int64(id) }

func WithBookingStatus(status string) attribute.KeyValue { return AttrBookingStatus.String(status) }
