package provider

import (
	"context"
	"net/url"
	"testing"

	"breedauth/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlipayAuthorizeURLStandardMode(t *testing.T) {
	p := NewAlipay(AlipayConfig{
		AppID:       "2021001234567890",
		RedirectURI: "https://dash.example.com/signin/callback",
	}, nil)

	raw := p.AuthorizeURL("alipay_login_abc", model.ModeStandard)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "openauth.alipay.com", parsed.Host)
	assert.Equal(t, "/oauth2/publicAppAuthorize.htm", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "2021001234567890", query.Get("app_id"))
	assert.Equal(t, "https://dash.example.com/signin/callback", query.Get("redirect_uri"))
	assert.Equal(t, "auth_user", query.Get("scope"))
	assert.Equal(t, "alipay_login_abc", query.Get("state"))
}

func TestAlipayAuthorizeURLSilentMode(t *testing.T) {
	p := NewAlipay(AlipayConfig{AppID: "ali", RedirectURI: "https://dash.example.com/cb"}, nil)

	raw := p.AuthorizeURL("alipay_login_abc", model.ModeSilent)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	// 支付宝静默授权只降级scope，端点不变
	assert.Equal(t, "/oauth2/publicAppAuthorize.htm", parsed.Path)
	assert.Equal(t, "auth_base", parsed.Query().Get("scope"))
}

func TestAlipayDetectCallbackRequiresAuthCodeParam(t *testing.T) {
	p := NewAlipay(AlipayConfig{AppID: "ali"}, nil)

	// 支付宝回调用auth_code参数，code不算数
	query, err := url.ParseQuery("code=abc&state=alipay_login_xyz")
	require.NoError(t, err)
	assert.Nil(t, p.DetectCallback(query))

	query, err = url.ParseQuery("auth_code=abc&state=alipay_login_xyz")
	require.NoError(t, err)
	cb := p.DetectCallback(query)
	require.NotNil(t, cb)
	assert.Equal(t, "abc", cb.Artifact)
}

func TestAlipayExchangeForwardsRawAuthCode(t *testing.T) {
	backend := &fakeBackend{result: &model.LoginResult{Token: "tok1"}}
	p := NewAlipay(AlipayConfig{AppID: "ali"}, backend)

	result, identity, err := p.Exchange(context.Background(), &model.CallbackResult{
		Provider: "alipay",
		Artifact: "auth9",
		State:    "alipay_login_xyz",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok1", result.Token)
	assert.Nil(t, identity)

	require.NotNil(t, backend.alipayReq)
	assert.Equal(t, "auth9", backend.alipayReq.AuthCode)
	assert.Equal(t, "alipay_login_xyz", backend.alipayReq.State)
}

func TestAlipayInEmbeddedBrowser(t *testing.T) {
	p := NewAlipay(AlipayConfig{AppID: "ali"}, nil)

	assert.True(t, p.InEmbeddedBrowser("Mozilla/5.0 AlipayClient/10.5.20"))
	assert.True(t, p.InEmbeddedBrowser("something Alipay something"))
	assert.False(t, p.InEmbeddedBrowser("Mozilla/5.0 Chrome/120.0"))
}
