package boot

import (
	"time"

	"breedauth/internal/repository"
	"breedauth/pkg/config"
	"breedauth/pkg/redis"

	"gorm.io/gorm"
)

// defaultSessionTTLHours 未配置时的会话有效期(小时)
const defaultSessionTTLHours = 7 * 24

// Repositories 包含所有仓储实例
type Repositories struct {
	StateTokenRepo  repository.StateTokenRepository
	SessionRepo     repository.SessionRepository
	LoginRecordRepo repository.LoginRecordRepository
}

// InitRepositories 初始化所有仓储实例
func InitRepositories(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Repositories {
	ttlHours := cfg.Session.TTLHours
	if ttlHours <= 0 {
		ttlHours = defaultSessionTTLHours
	}

	return &Repositories{
		StateTokenRepo:  repository.NewStateTokenRepository(redisClient),
		SessionRepo:     repository.NewSessionRepository(redisClient, time.Duration(ttlHours)*time.Hour),
		LoginRecordRepo: repository.NewLoginRecordRepository(db),
	}
}
