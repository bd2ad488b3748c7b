// Package cache Redis 连接管理与 JSON 缓存
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

// 缓存键前缀
const (
	KeyPrefixRoom      = "room"
	KeyPrefixDashboard = "dashboard"
	KeyPrefixRateLimit = "ratelimit"
	KeyPrefixLock      = "lock"
)

var rdb *redis.Client

func newOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Init 建立连接并 PING，失败时不保留客户端
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(newOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr(), err)
	}

	rdb = client
	return rdb, nil
}

// GetClient 未启用 Redis 时返回 nil
func GetClient() *redis.Client {
	return rdb
}

func Enabled() bool {
	return rdb != nil
}

func Close() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	return err
}

// IsMiss 是否为键不存在
func IsMiss(err error) bool {
	return stderrors.Is(err, redis.Nil)
}

// BuildKey 以冒号拼接，如 BuildKey("room", "12") 得到 room:12
func BuildKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}

// Typed 以 JSON 保存某一类型的值
// client 为 nil 或 ttl 不大于 0 时不缓存，所有操作直接返回
type Typed[T any] struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTyped[T any](client *redis.Client, ttl time.Duration) *Typed[T] {
	return &Typed[T]{client: client, ttl: ttl}
}

func (c *Typed[T]) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get 未命中返回 (nil, nil)；无法解码的旧数据会被删除
func (c *Typed[T]) Get(ctx context.Context, key string) (*T, error) {
	if !c.Enabled() {
		return nil, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if IsMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func (c *Typed[T]) Set(ctx context.Context, key string, v *T) error {
	if !c.Enabled() || v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *Typed[T]) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
