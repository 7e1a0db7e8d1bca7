package model

// AuthorizeMode 授权模式
type AuthorizeMode string

const (
	// ModeStandard 标准跳转授权(二维码/网页确认页)
	ModeStandard AuthorizeMode = "standard"
	// ModeSilent 静默授权(仅在对应App内置浏览器中可用，免确认页)
	ModeSilent AuthorizeMode = "silent"
)

// CallbackResult 回调识别结果(每次请求临时构造，不持久化)
type CallbackResult struct {
	Provider string // 匹配到的登录提供方名称
	Artifact string // 授权凭证: code(QQ/微信)或auth_code(支付宝)
	State    string // 回调携带的state参数(已通过前缀校验)
}

// ExchangedIdentity 提供方侧兑换得到的身份信息
// 仅在单次登录流程内存在，最终只有会话(Session)被持久化
type ExchangedIdentity struct {
	AccessToken string            // 提供方访问令牌(仅QQ流程持有)
	OpenID      string            // 提供方侧稳定用户标识
	Nickname    string            // 昵称(可选)
	Avatar      string            // 头像URL(可选)
	Gender      string            // 性别(可选)
	Extra       map[string]string // 提供方附加字段
}

// QQTokenResult QQ接口返回的令牌数据(URL编码响应体解析结果)
type QQTokenResult struct {
	AccessToken  string
	ExpiresIn    int64
	RefreshToken string
}

// QQUserInfo QQ用户信息接口响应
// Ret非0表示失败，Msg为失败原因
type QQUserInfo struct {
	Ret          int    `json:"ret"`
	Msg          string `json:"msg,omitempty"`
	Nickname     string `json:"nickname"`
	FigureURLQQ1 string `json:"figureurl_qq_1"`
	FigureURLQQ2 string `json:"figureurl_qq_2"`
	Gender       string `json:"gender"`
}

// QQLoginRequest QQ登录接口请求(提供方兑换完成后提交给记录后端)
type QQLoginRequest struct {
	AccessToken string      `json:"accessToken"`
	OpenID      string      `json:"openId"`
	UserInfo    *QQUserInfo `json:"userInfo"`
}

// WechatLoginRequest 微信登录接口请求(原始code与state由后端完成兑换)
type WechatLoginRequest struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

// AlipayLoginRequest 支付宝登录接口请求
type AlipayLoginRequest struct {
	AuthCode string `json:"authCode"`
	State    string `json:"state,omitempty"`
}

// StateRecord 一次登录尝试的state令牌记录
// 带提供方标记，短期存储，成功或失败消费后立即删除
type StateRecord struct {
	Provider  string `json:"provider"`
	Token     string `json:"token"`
	CreatedAt int64  `json:"created_at"`
	Redirect  string `json:"redirect,omitempty"` // 登录完成后的回跳路由
}
