package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"breedauth/internal/model"
)

const (
	// QQStatePrefix QQ登录state令牌前缀
	QQStatePrefix = "qq_login_"

	qqScope          = "get_user_info"
	defaultQQAPIBase = "https://graph.qq.com"
	qqAuthorizePath  = "/oauth2.0/authorize"
	qqTokenPath      = "/oauth2.0/token"
	qqOpenIDPath     = "/oauth2.0/me"
	qqUserInfoPath   = "/user/get_user_info"
)

// jsonpPattern 提取QQ OpenID接口的JSONP响应体: callback( {...} );
var jsonpPattern = regexp.MustCompile(`callback\(\s*(.+)\s*\)`)

// QQConfig QQ互联应用配置
type QQConfig struct {
	AppID       string // QQ互联分配的应用ID
	AppKey      string // 应用密钥
	RedirectURI string // 授权回调地址，须与QQ互联侧登记完全一致
	APIBase     string // QQ互联接口地址，默认为官方地址，测试时可替换
}

// qqProvider QQ登录提供方
// 兑换为三步: code换access_token(URL编码响应) -> access_token换openid(JSONP响应)
// -> access_token+openid换用户信息(JSON响应，ret非0为失败)
type qqProvider struct {
	cfg     QQConfig
	client  *http.Client
	backend Backend
}

// NewQQ 创建QQ登录提供方
func NewQQ(cfg QQConfig, client *http.Client, backend Backend) Provider {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultQQAPIBase
	}
	return &qqProvider{
		cfg:     cfg,
		client:  client,
		backend: backend,
	}
}

// Name 提供方名称
func (p *qqProvider) Name() string { return model.LoginTypeQQ }

// StatePrefix state令牌前缀
func (p *qqProvider) StatePrefix() string { return QQStatePrefix }

// AuthorizeURL 构造QQ授权跳转URL
// QQ互联仅提供网页授权流程，授权模式参数不生效
func (p *qqProvider) AuthorizeURL(state string, _ model.AuthorizeMode) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {p.cfg.AppID},
		"redirect_uri":  {p.cfg.RedirectURI},
		"scope":         {qqScope},
		"state":         {state},
	}
	return p.cfg.APIBase + qqAuthorizePath + "?" + params.Encode()
}

// DetectCallback 识别QQ回调: code与qq_login_前缀state同时存在才算命中
func (p *qqProvider) DetectCallback(query url.Values) *model.CallbackResult {
	code := query.Get("code")
	state := query.Get("state")
	if code == "" || !hasStatePrefix(state, QQStatePrefix) {
		return nil
	}
	return &model.CallbackResult{
		Provider: model.LoginTypeQQ,
		Artifact: code,
		State:    state,
	}
}

// InEmbeddedBrowser QQ互联不区分内置浏览器，始终走标准流程
func (p *qqProvider) InEmbeddedBrowser(string) bool { return false }

// Exchange 执行三步兑换并提交记录后端
// 任一步骤失败即中止，不提交部分身份
func (p *qqProvider) Exchange(ctx context.Context, cb *model.CallbackResult) (*model.LoginResult, *model.ExchangedIdentity, error) {
	token, err := p.exchangeToken(ctx, cb.Artifact)
	if err != nil {
		return nil, nil, err
	}

	openID, err := p.fetchOpenID(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	userInfo, err := p.fetchUserInfo(ctx, token.AccessToken, openID)
	if err != nil {
		return nil, nil, err
	}

	result, err := p.backend.QQLogin(ctx, &model.QQLoginRequest{
		AccessToken: token.AccessToken,
		OpenID:      openID,
		UserInfo:    userInfo,
	})
	if err != nil {
		return nil, nil, err
	}

	avatar := userInfo.FigureURLQQ2
	if avatar == "" {
		avatar = userInfo.FigureURLQQ1
	}
	identity := &model.ExchangedIdentity{
		AccessToken: token.AccessToken,
		OpenID:      openID,
		Nickname:    userInfo.Nickname,
		Avatar:      avatar,
		Gender:      userInfo.Gender,
	}
	return result, identity, nil
}

// exchangeToken 授权码换访问令牌
// QQ该接口返回URL编码文本而非JSON，需按查询串解析
func (p *qqProvider) exchangeToken(ctx context.Context, code string) (*model.QQTokenResult, error) {
	params := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {p.cfg.AppID},
		"client_secret": {p.cfg.AppKey},
		"code":          {code},
		"redirect_uri":  {p.cfg.RedirectURI},
	}

	body, err := p.get(ctx, p.cfg.APIBase+qqTokenPath+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token response: %v", ErrExchangeFailed, err)
	}

	accessToken := values.Get("access_token")
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty access token: %s", ErrExchangeFailed, body)
	}

	expiresIn, _ := strconv.ParseInt(values.Get("expires_in"), 10, 64)
	return &model.QQTokenResult{
		AccessToken:  accessToken,
		ExpiresIn:    expiresIn,
		RefreshToken: values.Get("refresh_token"),
	}, nil
}

// fetchOpenID 访问令牌换OpenID
// QQ该接口返回JSONP包裹的文本，需先用正则提取JSON部分
func (p *qqProvider) fetchOpenID(ctx context.Context, accessToken string) (string, error) {
	params := url.Values{
		"access_token": {accessToken},
	}

	body, err := p.get(ctx, p.cfg.APIBase+qqOpenIDPath+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	match := jsonpPattern.FindSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("%w: unexpected openid response: %s", ErrExchangeFailed, body)
	}

	var payload struct {
		OpenID string `json:"openid"`
	}
	if err := json.Unmarshal(match[1], &payload); err != nil {
		return "", fmt.Errorf("%w: invalid openid payload: %v", ErrExchangeFailed, err)
	}
	if payload.OpenID == "" {
		return "", fmt.Errorf("%w: empty openid", ErrExchangeFailed)
	}

	return payload.OpenID, nil
}

// fetchUserInfo 获取用户信息，ret非0视为失败
func (p *qqProvider) fetchUserInfo(ctx context.Context, accessToken, openID string) (*model.QQUserInfo, error) {
	params := url.Values{
		"access_token":       {accessToken},
		"oauth_consumer_key": {p.cfg.AppID},
		"openid":             {openID},
	}

	body, err := p.get(ctx, p.cfg.APIBase+qqUserInfoPath+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var info model.QQUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: invalid user info: %v", ErrExchangeFailed, err)
	}
	if info.Ret != 0 {
		return nil, fmt.Errorf("%w: user info ret=%d msg=%s", ErrExchangeFailed, info.Ret, info.Msg)
	}

	return &info, nil
}

// get 发起GET请求并读取完整响应体
func (p *qqProvider) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrExchangeFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrExchangeFailed, resp.StatusCode, body)
	}

	return body, nil
}
