package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"breedauth/internal/model"
	"breedauth/internal/provider"
)

const (
	backendLoginPath       = "/api/auth/login"
	backendQQLoginPath     = "/api/auth/qq-login"
	backendWechatLoginPath = "/api/auth/wechat-login"
	backendAlipayLoginPath = "/api/auth/alipay-login"
	backendLogoutPath      = "/api/login/outLogin"
)

// BackendClient 记录后端REST客户端
// 后端是外部协作方，四个登录接口返回同一LoginResult结构，
// 响应缺少token即视为失败，与HTTP状态码无关
type BackendClient interface {
	provider.Backend

	// Login 账号密码/手机验证码登录
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResult, error)
	// Logout 通知后端注销当前凭证
	Logout(ctx context.Context, token string) error
}

// backendClient 记录后端REST客户端实现
type backendClient struct {
	baseURL string
	client  *http.Client
}

// NewBackendClient 创建记录后端客户端
func NewBackendClient(baseURL string, client *http.Client) BackendClient {
	return &backendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Login 账号密码/手机验证码登录
func (c *backendClient) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResult, error) {
	return c.postLogin(ctx, backendLoginPath, req)
}

// QQLogin 提交QQ侧兑换结果
func (c *backendClient) QQLogin(ctx context.Context, req *model.QQLoginRequest) (*model.LoginResult, error) {
	return c.postLogin(ctx, backendQQLoginPath, req)
}

// WechatLogin 转交微信授权码
func (c *backendClient) WechatLogin(ctx context.Context, req *model.WechatLoginRequest) (*model.LoginResult, error) {
	return c.postLogin(ctx, backendWechatLoginPath, req)
}

// AlipayLogin 转交支付宝授权码
func (c *backendClient) AlipayLogin(ctx context.Context, req *model.AlipayLoginRequest) (*model.LoginResult, error) {
	return c.postLogin(ctx, backendAlipayLoginPath, req)
}

// Logout 通知后端注销当前凭证
func (c *backendClient) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+backendLogoutPath, nil)
	if err != nil {
		return fmt.Errorf("creating logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout failed: status %d", resp.StatusCode)
	}
	return nil
}

// postLogin 提交登录请求并解析统一响应
// 成功的判定标准只有一个: 响应体携带非空token；
// 后端给出的message在失败时优先透出
func (c *backendClient) postLogin(ctx context.Context, path string, payload interface{}) (*model.LoginResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading login response: %w", err)
	}

	var result model.LoginResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("%w: status %d", ErrLoginRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("invalid login response: %w", err)
	}

	if !result.OK() {
		if result.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrLoginRejected, result.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrLoginRejected, resp.StatusCode)
	}

	return &result, nil
}
