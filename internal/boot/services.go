package boot

import (
	"fmt"
	"net/http"
	"time"

	"breedauth/internal/provider"
	"breedauth/internal/service"
	"breedauth/pkg/config"
)

// defaultBackendTimeout 未配置时的出站请求超时
const defaultBackendTimeout = 15 * time.Second

// Services 包含所有服务实例
type Services struct {
	ProviderRegistry *provider.Registry
	BackendClient    service.BackendClient
	SigninService    service.SigninService
}

// InitServices 初始化所有服务实例
func InitServices(cfg *config.Config, repos *Repositories) (*Services, error) {
	timeout := defaultBackendTimeout
	if cfg.Backend.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	}

	// 所有出站调用共用一个带超时的HTTP客户端，挂起的请求不会无限等待
	httpClient := &http.Client{Timeout: timeout}

	backendClient := service.NewBackendClient(cfg.Backend.BaseURL, httpClient)

	// 注册三个登录提供方
	registry := provider.NewRegistry()
	for _, p := range []provider.Provider{
		provider.NewQQ(provider.QQConfig{
			AppID:       cfg.Providers.QQ.AppID,
			AppKey:      cfg.Providers.QQ.AppKey,
			RedirectURI: cfg.Providers.QQ.RedirectURI,
		}, httpClient, backendClient),
		provider.NewWechat(provider.WechatConfig{
			AppID:       cfg.Providers.Wechat.AppID,
			RedirectURI: cfg.Providers.Wechat.RedirectURI,
		}, backendClient),
		provider.NewAlipay(provider.AlipayConfig{
			AppID:       cfg.Providers.Alipay.AppID,
			RedirectURI: cfg.Providers.Alipay.RedirectURI,
		}, backendClient),
	} {
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}

	signinService := service.NewSigninService(
		registry,
		repos.StateTokenRepo,
		repos.SessionRepo,
		repos.LoginRecordRepo,
		backendClient,
	)

	return &Services{
		ProviderRegistry: registry,
		BackendClient:    backendClient,
		SigninService:    signinService,
	}, nil
}
