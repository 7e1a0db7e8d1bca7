package provider

import (
	"context"
	"net/url"

	"breedauth/internal/model"
)

const (
	// WechatStatePrefix 微信登录state令牌前缀
	WechatStatePrefix = "wechat_login_"

	wechatScopeUserInfo = "snsapi_userinfo"
	wechatScopeBase     = "snsapi_base"
	wechatFragment      = "#wechat_redirect"

	defaultWechatQRConnectURL = "https://open.weixin.qq.com/connect/qrconnect"
	defaultWechatInAppAuthURL = "https://open.weixin.qq.com/connect/oauth2/authorize"
)

// WechatConfig 微信开放平台应用配置
type WechatConfig struct {
	AppID        string // 微信开放平台分配的应用ID
	RedirectURI  string // 授权回调地址，须与开放平台侧登记完全一致
	QRConnectURL string // 扫码授权端点，默认为官方地址
	InAppAuthURL string // 微信内静默授权端点，默认为官方地址
}

// wechatProvider 微信登录提供方
// 客户端不持有AppSecret，code与state原样转交记录后端，由后端完成兑换
type wechatProvider struct {
	cfg     WechatConfig
	backend Backend
}

// NewWechat 创建微信登录提供方
func NewWechat(cfg WechatConfig, backend Backend) Provider {
	if cfg.QRConnectURL == "" {
		cfg.QRConnectURL = defaultWechatQRConnectURL
	}
	if cfg.InAppAuthURL == "" {
		cfg.InAppAuthURL = defaultWechatInAppAuthURL
	}
	return &wechatProvider{
		cfg:     cfg,
		backend: backend,
	}
}

// Name 提供方名称
func (p *wechatProvider) Name() string { return model.LoginTypeWechat }

// StatePrefix state令牌前缀
func (p *wechatProvider) StatePrefix() string { return WechatStatePrefix }

// AuthorizeURL 构造微信授权跳转URL
// 标准模式走扫码授权；静默模式走微信内授权端点并降级scope，免确认页
func (p *wechatProvider) AuthorizeURL(state string, mode model.AuthorizeMode) string {
	endpoint := p.cfg.QRConnectURL
	scope := wechatScopeUserInfo
	if mode == model.ModeSilent {
		endpoint = p.cfg.InAppAuthURL
		scope = wechatScopeBase
	}

	params := url.Values{
		"appid":         {p.cfg.AppID},
		"redirect_uri":  {p.cfg.RedirectURI},
		"response_type": {"code"},
		"scope":         {scope},
		"state":         {state},
	}
	return endpoint + "?" + params.Encode() + wechatFragment
}

// DetectCallback 识别微信回调: code与wechat_login_前缀state同时存在才算命中
func (p *wechatProvider) DetectCallback(query url.Values) *model.CallbackResult {
	code := query.Get("code")
	state := query.Get("state")
	if code == "" || !hasStatePrefix(state, WechatStatePrefix) {
		return nil
	}
	return &model.CallbackResult{
		Provider: model.LoginTypeWechat,
		Artifact: code,
		State:    state,
	}
}

// InEmbeddedBrowser 判断是否为微信内置浏览器
func (p *wechatProvider) InEmbeddedBrowser(userAgent string) bool {
	return IsWechatBrowser(userAgent)
}

// Exchange 转交授权码给记录后端兑换会话，客户端侧不产生身份信息
func (p *wechatProvider) Exchange(ctx context.Context, cb *model.CallbackResult) (*model.LoginResult, *model.ExchangedIdentity, error) {
	result, err := p.backend.WechatLogin(ctx, &model.WechatLoginRequest{
		Code:  cb.Artifact,
		State: cb.State,
	})
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}
