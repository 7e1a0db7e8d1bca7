package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWechatBrowser(t *testing.T) {
	assert.True(t, IsWechatBrowser("Mozilla/5.0 MicroMessenger/8.0.40"))
	assert.True(t, IsWechatBrowser("mozilla micromessenger"))
	assert.False(t, IsWechatBrowser("Mozilla/5.0 Chrome/120.0"))
	assert.False(t, IsWechatBrowser(""))
}

func TestIsAlipayBrowser(t *testing.T) {
	assert.True(t, IsAlipayBrowser("Mozilla/5.0 AlipayClient/10.5.20"))
	assert.True(t, IsAlipayBrowser("UCBrowser Alipay"))
	assert.False(t, IsAlipayBrowser("Mozilla/5.0 MicroMessenger/8.0.40"))
	assert.False(t, IsAlipayBrowser(""))
}
