package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginRecord 登录记录
type LoginRecord struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;index:idx_user_login_time,priority:1" json:"user_id"`
	Username  string    `gorm:"type:varchar(100)" json:"username"`
	LoginType string    `gorm:"type:varchar(20);not null" json:"login_type"`
	ClientIP  string    `gorm:"type:varchar(50)" json:"client_ip"`
	UserAgent string    `gorm:"type:varchar(500)" json:"user_agent"`
	LoginTime time.Time `gorm:"not null;index:idx_user_login_time,priority:2" json:"login_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate GORM的钩子，在创建记录前自动生成UUID
func (l *LoginRecord) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// TableName 返回表名
func (LoginRecord) TableName() string {
	return "login_records"
}

// LoginRecordResponse 登录记录响应
type LoginRecordResponse struct {
	ID        string    `json:"id"`
	LoginType string    `json:"login_type"`
	ClientIP  string    `json:"client_ip"`
	LoginTime time.Time `json:"login_time"`
}
