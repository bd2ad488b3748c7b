// Package logger 基于 zap 的全局结构化日志
//
// Init 之前调用任何方法都会得到一个开发模式日志器；
// 日志级别可通过 SetLevel 在运行时调整（如收到 SIGHUP 重新加载配置后）。
package logger

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

const timeLayout = "2006-01-02 15:04:05.000"

var (
	mu    sync.RWMutex
	log   *zap.Logger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init 按配置构建全局日志器
func Init(cfg *config.LoggerConfig) error {
	level.SetLevel(parseLevel(cfg.Level))

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	l := zap.New(zapcore.NewCore(newEncoder(cfg.Format), newWriteSyncer(cfg), level), opts...)

	mu.Lock()
	log = l
	mu.Unlock()
	return nil
}

// newEncoder json 用于生产采集，其余格式输出带颜色的控制台日志
func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// newWriteSyncer output 取值 stdout / file / both，file 需要配置 file_path
func newWriteSyncer(cfg *config.LoggerConfig) zapcore.WriteSyncer {
	toStdout := cfg.Output == "" || cfg.Output == "stdout" || cfg.Output == "both"
	toFile := cfg.FilePath != "" && (cfg.Output == "file" || cfg.Output == "both")

	var sinks []zapcore.WriteSyncer
	if toStdout || !toFile {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}
	if toFile {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}))
	}
	return zapcore.NewMultiWriteSyncer(sinks...)
}

// parseLevel 无法识别的级别按 info 处理
func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

// SetLevel 运行时调整日志级别
func SetLevel(s string) {
	level.SetLevel(parseLevel(s))
}

// Level 当前日志级别
func Level() zapcore.Level {
	return level.Level()
}

// GetLogger 获取全局日志器
func GetLogger() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log, _ = zap.NewDevelopment()
	}
	return log
}

// Sync 刷新缓冲
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return nil
	}
	return log.Sync()
}

func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field) { GetLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// Named 返回子日志器
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// 字段构造
var (
	String = zap.String
	Int64  = zap.Int64
	Err    = zap.Error
)

func RequestID(id string) zap.Field { return zap.String("request_id", id) }
func UserID(id int64) zap.Field { return zap.Int64("user_id", id) }
func AdminID(id int64) zap.Field { return zap.Int64("admin_id", id) }
func RoomID(id int64) zap.Field { return zap.Int64("room_id", id) }
func BookingID(id int64) zap.Field { return zap.Int64("booking_id", id) }
func BookingNo(no string) zap.Field { return zap.String("booking_no", no) }
func Module(name string) zap.Field { return zap.String("module", name) }
func Action(name string) zap.Field { return zap.String("action", name) }
func Method(m string) zap.Field { return zap.String("method", m) }
func Path(p string) zap.Field { return zap.String("path", p) }
func IP(ip string) zap.Field { return zap.String("ip", ip) }
func StatusCode(code int) zap.Field { return zap.Int("status_code", code) }
func Latency(d time.Duration) zap.Field { return zap.Duration("latency", d) }
