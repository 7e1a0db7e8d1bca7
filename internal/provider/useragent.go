package provider

import "strings"

// IsWechatBrowser 判断是否为微信内置浏览器
func IsWechatBrowser(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), "micromessenger")
}

// IsAlipayBrowser 判断是否为支付宝内置浏览器
func IsAlipayBrowser(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	return strings.Contains(ua, "alipayclient") || strings.Contains(ua, "alipay")
}
