// Package database 数据库模块单元测试
package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

func sqliteConfig(path string) *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:          config.DriverSQLite,
		Path:            path,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Minute,
		SlowThreshold:   200 * time.Millisecond,
	}
}

// ==================== Init 测试 ====================

func TestInit_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "hotel_booking.db")

	gdb, err := Init(sqliteConfig(path))
	require.NoError(t, err)
	require.NotNil(t, gdb)
	t.Cleanup(func() { _ = Close() })

	assert.Equal(t, gdb, GetDB())
	assert.FileExists(t, path)
	assert.NoError(t, Ping(context.Background(), gdb))
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Warn, getLogLevel(true))
	assert.Equal(t, gormlogger.Silent, getLogLevel(false))
}

// ==================== Migrate / Transaction 测试 ====================

type counter struct {
	ID        int64
	Value     int
	CreatedAt time.Time
}

func setupGlobalDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(testDB, &counter{}))

	oldDB := db
	db = testDB
	t.Cleanup(func() { db = oldDB })
	return testDB
}

func TestTransaction(t *testing.T) {
	testDB := setupGlobalDB(t)
	ctx := context.Background()

	t.Run("提交", func(t *testing.T) {
		err := Transaction(ctx, func(tx *gorm.DB) error {
			return tx.Create(&counter{ID: 1, Value: 100}).Error
		})
		require.NoError(t, err)

		var c counter
		require.NoError(t, testDB.First(&c, 1).Error)
		assert.Equal(t, 100, c.Value)
	})

	t.Run("回滚", func(t *testing.T) {
		err := Transaction(ctx, func(tx *gorm.DB) error {
			tx.Create(&counter{ID: 2, Value: 200})
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		var count int64
		testDB.Model(&counter{}).Where("id = ?", 2).Count(&count)
		assert.Zero(t, count)
	})
}

// ==================== 作用域测试 ====================

func TestPaginate(t *testing.T) {
	testDB := setupGlobalDB(t)
	for i := 1; i <= 25; i++ {
		testDB.Create(&counter{ID: int64(i), Value: i})
	}

	tests := []struct {
		name         string
		page         int
		pageSize     int
		expectedLen  int
		expectedFrom int64
	}{
		{"first page", 1, 10, 10, 1},
		{"last partial page", 3, 10, 5, 21},
		{"beyond last page", 4, 10, 0, 0},
		{"zero page defaults to 1", 0, 10, 10, 1},
		{"zero pageSize defaults to 10", 1, 0, 10, 1},
		{"pageSize over 100 capped", 1, 500, 25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []counter
			testDB.Order("id").Scopes(Paginate(tt.page, tt.pageSize)).Find(&results)

			assert.Len(t, results, tt.expectedLen)
			if tt.expectedLen > 0 {
				assert.Equal(t, tt.expectedFrom, results[0].ID)
			}
		})
	}
}

func TestOrderByCreatedDesc(t *testing.T) {
	testDB := setupGlobalDB(t)
	now := time.Now()
	testDB.Create(&counter{ID: 1, CreatedAt: now.Add(-2 * time.Hour)})
	testDB.Create(&counter{ID: 2, CreatedAt: now})
	testDB.Create(&counter{ID: 3, CreatedAt: now.Add(-1 * time.Hour)})

	var results []counter
	testDB.Scopes(OrderByCreatedDesc).Find(&results)

	require.Len(t, results, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{results[0].ID, results[1].ID, results[2].ID})
}

func TestClose_WithNilDB(t *testing.T) {
	oldDB := db
	db = nil
	t.Cleanup(func() { db = oldDB })

	assert.NoError(t, Close())
}
