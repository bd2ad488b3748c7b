package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		mu.Lock()
		log = nil
		mu.Unlock()
		SetLevel("info")
	})
}

func TestInit_Formats(t *testing.T) {
	resetGlobal(t)
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			err := Init(&config.LoggerConfig{
				Level:  "warn",
				Format: format,
				Output: "stdout",
				Caller: format == "console",
			})
			require.NoError(t, err)
			assert.NotNil(t, GetLogger())
			assert.Equal(t, zapcore.WarnLevel, Level())
		})
	}
}

func TestInit_FileOutput(t *testing.T) {
	resetGlobal(t)
	logFile := filepath.Join(t.TempDir(), "booking.log")

	require.NoError(t, Init(&config.LoggerConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "file",
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 3,
		MaxAge:     7,
	}))

	Info("预订已创建", BookingNo("BK20250101000001"), RoomID(101))
	Debug("可用性检查", BookingID(9))
	_ = Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "BK20250101000001")
	assert.Contains(t, out, `"room_id":101`)
	assert.Contains(t, out, `"booking_id":9`)
	assert.Contains(t, out, `"time":"`)
}

func TestSetLevel(t *testing.T) {
	resetGlobal(t)
	logFile := filepath.Join(t.TempDir(), "level.log")
	require.NoError(t, Init(&config.LoggerConfig{Level: "info", Format: "json", Output: "file", FilePath: logFile}))

	Debug("hidden-before")
	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, Level())
	Debug("shown-after")
	_ = Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden-before")
	assert.Contains(t, string(data), "shown-after")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestGetLogger_LazyInit(t *testing.T) {
	resetGlobal(t)
	mu.Lock()
	log = nil
	mu.Unlock()

	assert.NoError(t, Sync())
	l1 := GetLogger()
	require.NotNil(t, l1)
	assert.Same(t, l1, GetLogger())
	assert.NotPanics(t, func() {
		Warn("warn message", String("key", "value"))
		Error("error message", Err(nil))
	})
	assert.NotNil(t, Named("availability"))
}

func TestFieldConstructors(t *testing.T) {
	t.Run("业务字段", func(t *testing.T) {
		assert.Equal(t, "booking_id", BookingID(42).Key)
		assert.Equal(t, int64(42), BookingID(42).Integer)
		assert.Equal(t, "BK1", BookingNo("BK1").String)
		assert.Equal(t, "user_id", UserID(7).Key)
		assert.Equal(t, "admin_id", AdminID(1).Key)
		assert.Equal(t, "module", Module("booking").Key)
		assert.Equal(t, "action", Action("cancel").Key)
	})

	t.Run("HTTP 字段", func(t *testing.T) {
		assert.Equal(t, "method", Method("POST").Key)
		assert.Equal(t, "path", Path("/api/v1/bookings").Key)
		assert.Equal(t, "status_code", StatusCode(409).Key)
		assert.Equal(t, "ip", IP("127.0.0.1").Key)
		assert.Equal(t, "request_id", RequestID("r").Key)
		assert.Equal(t, int64(100*time.Millisecond), Latency(100*time.Millisecond).Integer)
	})
}
