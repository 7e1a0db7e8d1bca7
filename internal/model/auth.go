package model

// LoginType 登录方式
const (
	LoginTypeAccount = "account" // 账号密码登录
	LoginTypeMobile  = "mobile"  // 手机验证码登录
	LoginTypeQQ      = "qq"      // QQ登录
	LoginTypeWechat  = "wechat"  // 微信登录
	LoginTypeAlipay  = "alipay"  // 支付宝登录
)

// LoginRequest 账号密码/手机验证码登录请求
type LoginRequest struct {
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	Captcha   string `json:"captcha,omitempty"`
	AutoLogin bool   `json:"autoLogin,omitempty"`
	Type      string `json:"type,omitempty"`
}

// LoginResult 记录后端登录接口的统一响应
// 四个登录接口(账号/QQ/微信/支付宝)返回同一结构，Token为空即视为失败
type LoginResult struct {
	Token    string `json:"token,omitempty"`
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// OK 判断登录响应是否成功(以Token是否存在为准，与HTTP状态码无关)
func (r *LoginResult) OK() bool {
	return r != nil && r.Token != ""
}

// Session 本地会话(持久化的唯一登录状态)
// 同一时刻至多存在一份，写入时整体替换，Token为空即视为未登录
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	UserRole string `json:"userRole"`

	// CurrentUser 随会话整体写入/替换的控制台用户投影
	CurrentUser *CurrentUser `json:"currentUser,omitempty"`
}

// Authenticated 判断会话是否有效
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Geographic 地理信息
type Geographic struct {
	Province LabeledValue `json:"province"`
	City     LabeledValue `json:"city"`
}

// LabeledValue 带标签的键值
type LabeledValue struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

// CurrentUser 面向控制台的当前用户投影
type CurrentUser struct {
	Name       string      `json:"name"`
	Avatar     string      `json:"avatar"`
	UserID     string      `json:"userid"`
	Email      string      `json:"email,omitempty"`
	Signature  string      `json:"signature,omitempty"`
	Title      string      `json:"title,omitempty"`
	Group      string      `json:"group,omitempty"`
	Country    string      `json:"country,omitempty"`
	Access     string      `json:"access"`
	Geographic *Geographic `json:"geographic,omitempty"`
	Address    string      `json:"address,omitempty"`
	Phone      string      `json:"phone,omitempty"`
}
