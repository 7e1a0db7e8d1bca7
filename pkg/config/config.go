package config

import (
	"fmt"

	"breedauth/pkg/database"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  database.Config `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int
	Mode        string
	AuthEnabled bool `mapstructure:"auth_enabled"` // 是否启用认证
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig 会话配置
type SessionConfig struct {
	TTLHours   int    `mapstructure:"ttl_hours"`   // 会话有效期(小时)
	CookieName string `mapstructure:"cookie_name"` // 浏览器会话标识Cookie名
}

// BackendConfig 记录后端(外部协作方)配置
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`        // 后端基础地址
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // 单次请求超时(秒)
}

// ProvidersConfig 第三方登录提供方配置
type ProvidersConfig struct {
	QQ     QQProviderConfig     `mapstructure:"qq"`
	Wechat WechatProviderConfig `mapstructure:"wechat"`
	Alipay AlipayProviderConfig `mapstructure:"alipay"`
}

// QQProviderConfig QQ互联应用配置
type QQProviderConfig struct {
	AppID       string `mapstructure:"app_id"`       // 应用ID
	AppKey      string `mapstructure:"app_key"`      // 应用密钥
	RedirectURI string `mapstructure:"redirect_uri"` // 授权回调地址，须与QQ互联侧登记一致
}

// WechatProviderConfig 微信开放平台应用配置
type WechatProviderConfig struct {
	AppID       string `mapstructure:"app_id"`
	RedirectURI string `mapstructure:"redirect_uri"`
}

// AlipayProviderConfig 支付宝开放平台应用配置
type AlipayProviderConfig struct {
	AppID       string `mapstructure:"app_id"`
	RedirectURI string `mapstructure:"redirect_uri"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml") // 设置配置文件类型
	viper.AutomaticEnv()        // 读取环境变量

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
