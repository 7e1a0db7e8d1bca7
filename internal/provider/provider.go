package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"breedauth/internal/model"
)

var (
	// ErrProviderNotFound 提供方未注册
	ErrProviderNotFound = errors.New("provider not found")
	// ErrDuplicateProvider 提供方重复注册
	ErrDuplicateProvider = errors.New("provider already registered")
	// ErrExchangeFailed 兑换失败(网络错误/响应缺字段/提供方返回失败码)
	ErrExchangeFailed = errors.New("provider exchange failed")
)

// Backend 记录后端的登录接口(外部协作方，仅约定请求/响应契约)
type Backend interface {
	// QQLogin 提交QQ侧兑换结果，换取统一登录响应
	QQLogin(ctx context.Context, req *model.QQLoginRequest) (*model.LoginResult, error)
	// WechatLogin 原样转交微信授权码与state，兑换由后端完成
	WechatLogin(ctx context.Context, req *model.WechatLoginRequest) (*model.LoginResult, error)
	// AlipayLogin 原样转交支付宝授权码与state
	AlipayLogin(ctx context.Context, req *model.AlipayLoginRequest) (*model.LoginResult, error)
}

// Provider 第三方登录提供方策略
// 三个实现(QQ/微信/支付宝)共用同一能力集，由注册表统一遍历
type Provider interface {
	// Name 提供方名称
	Name() string

	// StatePrefix 该提供方state令牌的编译期常量前缀
	StatePrefix() string

	// AuthorizeURL 构造授权跳转URL(纯字符串拼接，无副作用)
	// 静默模式仅在对应App内置浏览器中有意义，会替换scope及端点
	AuthorizeURL(state string, mode model.AuthorizeMode) string

	// DetectCallback 判断查询参数是否为该提供方的合法回调
	// 凭证与带前缀的state缺一即返回nil；调用无副作用，可对每个提供方反复执行
	DetectCallback(query url.Values) *model.CallbackResult

	// Exchange 将回调凭证兑换为统一登录响应及提供方侧身份信息
	// 任一步骤失败即整体失败，不产生部分会话；身份信息仅QQ流程完整，
	// 微信/支付宝由后端兑换，客户端侧为空
	Exchange(ctx context.Context, cb *model.CallbackResult) (*model.LoginResult, *model.ExchangedIdentity, error)

	// InEmbeddedBrowser 判断User-Agent是否为该提供方的内置浏览器
	// 仅用于选择授权模式，判断错误不影响state校验的安全性
	InEmbeddedBrowser(userAgent string) bool
}

// hasStatePrefix 校验state令牌是否非空且携带指定提供方前缀
// 凭证存在但state不合法的回调一律视为非回调，防止伪造URL触发兑换
func hasStatePrefix(state, prefix string) bool {
	return state != "" && strings.HasPrefix(state, prefix)
}

// Registry 提供方注册表
type Registry struct {
	order  []Provider
	byName map[string]Provider
}

// NewRegistry 创建空的提供方注册表
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register 注册提供方
func (r *Registry) Register(p Provider) error {
	name := p.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}
	r.byName[name] = p
	r.order = append(r.order, p)
	return nil
}

// Get 按名称获取提供方
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// Names 返回已注册提供方名称(按注册顺序)
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, p := range r.order {
		names = append(names, p.Name())
	}
	return names
}

// Detect 依次尝试各提供方的回调识别，返回首个命中者
// state前缀互斥，实际至多一个提供方命中
func (r *Registry) Detect(query url.Values) (Provider, *model.CallbackResult) {
	for _, p := range r.order {
		if cb := p.DetectCallback(query); cb != nil {
			return p, cb
		}
	}
	return nil, nil
}
