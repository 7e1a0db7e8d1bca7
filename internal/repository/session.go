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
	// sessionKeyPrefix 会话在Redis中的键前缀(按浏览器sid)
	sessionKeyPrefix = "session:"
	// sessionTokenKeyPrefix 凭证到sid的反查索引前缀
	sessionTokenKeyPrefix = "session_token:"
)

// SessionRepository 会话仓储接口
// 每个sid(浏览器)至多持有一份会话，写入时整体替换旧值，
// 不合并陈旧字段；Token缺失即视为未登录
type SessionRepository interface {
	// Save 写入会话(整体替换同sid下的旧会话)
	Save(ctx context.Context, sid string, session *model.Session) error
	// Get 按sid读取会话，不存在时返回nil
	Get(ctx context.Context, sid string) (*model.Session, error)
	// GetByToken 按登录凭证反查会话，不存在时返回nil
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	// Clear 清除会话
	Clear(ctx context.Context, sid string) error
}

// sessionRepository 会话仓储实现
type sessionRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionRepository 创建会话仓储实例
func NewSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	return &sessionRepository{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Save 写入会话
func (r *sessionRepository) Save(ctx context.Context, sid string, session *model.Session) error {
	// 旧会话若持有不同凭证，先摘除其反查索引，确保整体替换
	if old, err := r.Get(ctx, sid); err == nil && old != nil && old.Token != session.Token {
		_ = r.redis.Del(ctx, sessionTokenKeyPrefix+old.Token)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.redis.Set(ctx, sessionKeyPrefix+sid, data, r.ttl); err != nil {
		return err
	}
	return r.redis.Set(ctx, sessionTokenKeyPrefix+session.Token, sid, r.ttl)
}

// Get 按sid读取会话
func (r *sessionRepository) Get(ctx context.Context, sid string) (*model.Session, error) {
	data, err := r.redis.Get(ctx, sessionKeyPrefix+sid)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// GetByToken 按登录凭证反查会话
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	sid, err := r.redis.Get(ctx, sessionTokenKeyPrefix+token)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return r.Get(ctx, sid)
}

// Clear 清除会话及其反查索引
func (r *sessionRepository) Clear(ctx context.Context, sid string) error {
	session, err := r.Get(ctx, sid)
	if err != nil {
		return err
	}
	if session != nil && session.Token != "" {
		if err := r.redis.Del(ctx, sessionTokenKeyPrefix+session.Token); err != nil {
			return err
		}
	}
	return r.redis.Del(ctx, sessionKeyPrefix+sid)
}
