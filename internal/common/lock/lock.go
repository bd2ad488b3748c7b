// Package lock 提供按房间粒度的互斥锁
//
// 同一房间上的创建、取消、状态变更与删除操作须串行执行，
// 单实例部署使用进程内锁，多实例部署使用 Redis 锁。
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
)

// RoomLocker 房间锁
type RoomLocker interface {
	// Lock 获取房间锁，返回的 unlock 必须被调用且只调用一次
	Lock(ctx context.Context, roomID int64) (unlock func(), err error)
}

// LocalLocker 进程内房间锁
// 每个房间的槽位按等待者计数，最后一个持有或等待者离开时回收
type LocalLocker struct {
	mu    sync.Mutex
	slots map[int64]*roomSlot
	wait  time.Duration
}

type roomSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker 创建进程内房间锁，wait 为获取锁的最长等待时间
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		slots: make(map[int64]*roomSlot),
		wait:  wait,
	}
}

func (l *LocalLocker) acquire(roomID int64) *roomSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[roomID]
	if !ok {
		s = &roomSlot{ch: make(chan struct{}, 1)}
		l.slots[roomID] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) release(roomID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.slots[roomID]; ok {
		s.refs--
		if s.refs <= 0 {
			delete(l.slots, roomID)
		}
	}
}

// Len 当前占用槽位的房间数
func (l *LocalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// Lock 获取房间锁
func (l *LocalLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	s := l.acquire(roomID)

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.release(roomID)
			})
		}, nil
	case <-ctx.Done():
		l.release(roomID)
		return nil, errors.ErrLockTimeout.WithError(ctx.Err())
	}
}

// releaseScript 值与持有者令牌一致时才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 Redis SET NX PX 的房间锁
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	wait          time.Duration
	retryInterval time.Duration
	keyPrefix     string
}

// NewRedisLocker 创建 Redis 房间锁
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		wait:          wait,
		retryInterval: 25 * time.Millisecond,
		keyPrefix:     "lock:room:",
	}
}

func (l *RedisLocker) key(roomID int64) string {
	return fmt.Sprintf("%s%d", l.keyPrefix, roomID)
}

// Lock 获取房间锁，在等待时间内轮询重试
func (l *RedisLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	key := l.key(roomID)
	token := uuid.NewString()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.ErrLockTimeout.WithError(ctx.Err())
			}
			return nil, errors.ErrCacheError.WithError(err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.ErrLockTimeout.WithError(ctx.Err())
		case <-ticker.C:
		}
	}
}
