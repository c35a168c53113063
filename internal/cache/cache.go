package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 下游视图缓存键
const (
	KeyDashboard = "gemflow:views:dashboard"
	KeyReport    = "gemflow:views:report"

	keyGeneration = "gemflow:views:generation"
)

// Views 下游视图缓存（写后失效）
// 订单或注册表（金属/材质/工序）任何一次写入都会使聚合视图失效，
// 重量从不落库，视图必须在下一次读取时按当前注册表重算。
// 缓存键带代号后缀（如 gemflow:views:dashboard:TODAY:g3），
// 失效只递增代号，旧代条目靠 TTL 过期
type Views struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewViews 创建视图缓存，client 为 nil 时降级为直读（所有操作为空操作）
func NewViews(client *redis.Client, logger *zap.Logger, ttl time.Duration) *Views {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Views{client: client, logger: logger, ttl: ttl}
}

// generation 当前缓存代号，未设置时视为 0
func (v *Views) generation(ctx context.Context) string {
	gen, err := v.client.Get(ctx, keyGeneration).Result()
	if err != nil {
		return "0"
	}
	return gen
}

// Get 读取缓存视图，未命中或反序列化失败返回 false
func (v *Views) Get(ctx context.Context, key string, dest interface{}) bool {
	if v.client == nil {
		return false
	}
	key = key + ":g" + v.generation(ctx)
	raw, err := v.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		v.logger.Warn("corrupt cached view, dropping", zap.String("key", key), zap.Error(err))
		v.client.Del(ctx, key)
		return false
	}
	return true
}

// Set 写入缓存视图，序列化失败只记日志不阻断请求
func (v *Views) Set(ctx context.Context, key string, value interface{}) {
	if v.client == nil {
		return
	}
	key = key + ":g" + v.generation(ctx)
	raw, err := json.Marshal(value)
	if err != nil {
		v.logger.Warn("failed to marshal view for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := v.client.Set(ctx, key, raw, v.ttl).Err(); err != nil {
		v.logger.Warn("failed to cache view", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll 写后失效钩子：订单/注册表变更后调用
// 递增代号使所有已缓存视图（含各时间窗预设）一次性失效
func (v *Views) InvalidateAll(ctx context.Context) {
	if v.client == nil {
		return
	}
	if err := v.client.Incr(ctx, keyGeneration).Err(); err != nil {
		v.logger.Warn("failed to invalidate cached views", zap.Error(err))
	}
}
