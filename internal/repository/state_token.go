package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"breedauth/internal/model"
	"breedauth/pkg/redis"
)

const (
	// stateKeyPrefix state令牌在Redis中的键前缀
	stateKeyPrefix = "signin_state:"
	// StateTTL state令牌有效期，超时未回调即作废
	StateTTL = 10 * time.Minute
)

// StateTokenRepository state令牌仓储接口
// 每次登录尝试写入一条记录，回调时一次性消费(成功或失败均删除)，
// 手动刷新回调页不会重复触发兑换
type StateTokenRepository interface {
	// Save 保存state令牌记录
	Save(ctx context.Context, record *model.StateRecord) error
	// Consume 取出并删除state令牌记录，不存在时返回nil
	Consume(ctx context.Context, token string) (*model.StateRecord, error)
}

// stateTokenRepository state令牌仓储实现
type stateTokenRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStateTokenRepository 创建state令牌仓储实例
func NewStateTokenRepository(redisClient *redis.Client) StateTokenRepository {
	return &stateTokenRepository{
		redis: redisClient,
		ttl:   StateTTL,
	}
}

// Save 保存state令牌记录
func (r *stateTokenRepository) Save(ctx context.Context, record *model.StateRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal state record: %w", err)
	}
	return r.redis.Set(ctx, stateKeyPrefix+record.Token, data, r.ttl)
}

// Consume 取出并删除state令牌记录
func (r *stateTokenRepository) Consume(ctx context.Context, token string) (*model.StateRecord, error) {
	key := stateKeyPrefix + token

	data, err := r.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	// 读到即删，令牌只允许消费一次
	if err := r.redis.Del(ctx, key); err != nil {
		return nil, err
	}

	var record model.StateRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state record: %w", err)
	}
	return &record, nil
}
