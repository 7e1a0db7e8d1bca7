package provider

import (
	"context"
	"net/url"

	"breedauth/internal/model"
)

const (
	// AlipayStatePrefix 支付宝登录state令牌前缀
	AlipayStatePrefix = "alipay_login_"

	alipayScopeUser = "auth_user"
	alipayScopeBase = "auth_base"

	defaultAlipayAuthorizeURL = "https://openauth.alipay.com/oauth2/publicAppAuthorize.htm"
)

// AlipayConfig 支付宝开放平台应用配置
type AlipayConfig struct {
	AppID        string // 支付宝开放平台分配的应用ID
	RedirectURI  string // 授权回调地址，须与开放平台侧登记完全一致
	AuthorizeURL string // 授权端点，默认为官方地址
}

// alipayProvider 支付宝登录提供方
// 与微信相同，auth_code与state原样转交记录后端兑换
// 静默模式仅降级scope，端点不变
type alipayProvider struct {
	cfg     AlipayConfig
	backend Backend
}

// NewAlipay 创建支付宝登录提供方
func NewAlipay(cfg AlipayConfig, backend Backend) Provider {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = defaultAlipayAuthorizeURL
	}
	return &alipayProvider{
		cfg:     cfg,
		backend: backend,
	}
}

// Name 提供方名称
func (p *alipayProvider) Name() string { return model.LoginTypeAlipay }

// StatePrefix state令牌前缀
func (p *alipayProvider) StatePrefix() string { return AlipayStatePrefix }

// AuthorizeURL 构造支付宝授权跳转URL
func (p *alipayProvider) AuthorizeURL(state string, mode model.AuthorizeMode) string {
	scope := alipayScopeUser
	if mode == model.ModeSilent {
		scope = alipayScopeBase
	}

	params := url.Values{
		"app_id":       {p.cfg.AppID},
		"redirect_uri": {p.cfg.RedirectURI},
		"scope":        {scope},
		"state":        {state},
	}
	return p.cfg.AuthorizeURL + "?" + params.Encode()
}

// DetectCallback 识别支付宝回调: auth_code与alipay_login_前缀state同时存在才算命中
func (p *alipayProvider) DetectCallback(query url.Values) *model.CallbackResult {
	authCode := query.Get("auth_code")
	state := query.Get("state")
	if authCode == "" || !hasStatePrefix(state, AlipayStatePrefix) {
		return nil
	}
	return &model.CallbackResult{
		Provider: model.LoginTypeAlipay,
		Artifact: authCode,
		State:    state,
	}
}

// InEmbeddedBrowser 判断是否为支付宝内置浏览器
func (p *alipayProvider) InEmbeddedBrowser(userAgent string) bool {
	return IsAlipayBrowser(userAgent)
}

// Exchange 转交授权码给记录后端兑换会话，客户端侧不产生身份信息
func (p *alipayProvider) Exchange(ctx context.Context, cb *model.CallbackResult) (*model.LoginResult, *model.ExchangedIdentity, error) {
	result, err := p.backend.AlipayLogin(ctx, &model.AlipayLoginRequest{
		AuthCode: cb.Artifact,
		State:    cb.State,
	})
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}
