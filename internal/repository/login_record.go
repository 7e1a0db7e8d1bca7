package repository

import (
	"context"

	"breedauth/internal/model"

	"gorm.io/gorm"
)

// LoginRecordRepository 登录记录仓储接口
type LoginRecordRepository interface {
	// Create 创建登录记录
	Create(ctx context.Context, record *model.LoginRecord) error
	// GetLatestByUserID 获取用户最近的登录记录
	GetLatestByUserID(ctx context.Context, userID string, limit int) ([]*model.LoginRecord, error)
}

// loginRecordRepository 登录记录仓储实现
type loginRecordRepository struct {
	db *gorm.DB
}

// NewLoginRecordRepository 创建登录记录仓储实例
func NewLoginRecordRepository(db *gorm.DB) LoginRecordRepository {
	return &loginRecordRepository{db: db}
}

// Create 创建登录记录
func (r *loginRecordRepository) Create(ctx context.Context, record *model.LoginRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetLatestByUserID 获取用户最近的登录记录
func (r *loginRecordRepository) GetLatestByUserID(ctx context.Context, userID string, limit int) ([]*model.LoginRecord, error) {
	var records []*model.LoginRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("login_time DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
