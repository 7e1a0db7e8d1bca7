package v1

import (
	"errors"
	"net/http"

	"breedauth/internal/provider"
	"breedauth/internal/service"
	"breedauth/pkg/api"
	"breedauth/pkg/logger"
	"breedauth/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// signinRoute 登录页路由(回调无法落地时回到这里)
	signinRoute = "/user/login"
	// signinFailedRoute 登录失败后的回跳地址，展示统一的失败提示
	signinFailedRoute = "/user/login?signin=failed"

	// sidCookieMaxAge 浏览器会话标识Cookie有效期
	sidCookieMaxAge = 365 * 24 * 3600
)

// SigninHandler 第三方登录处理器
type SigninHandler struct {
	signinService service.SigninService
	cookieName    string
	tokenMaxAge   int
}

// NewSigninHandler 创建第三方登录处理器实例
func NewSigninHandler(signinService service.SigninService, cookieName string, tokenMaxAge int) *SigninHandler {
	return &SigninHandler{
		signinService: signinService,
		cookieName:    cookieName,
		tokenMaxAge:   tokenMaxAge,
	}
}

// Start 开始登录: 生成授权URL并发起整页跳转
// 跳转是不可回退的浏览器导航，流程由回调请求续接
func (h *SigninHandler) Start(c *gin.Context) {
	authorizeURL, err := h.signinService.BeginAuthorization(
		c.Request.Context(),
		c.Param("provider"),
		c.Request.UserAgent(),
		c.Query("redirect"),
	)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotFound) {
			api.Fail(c, http.StatusNotFound, api.CodeUnknownProvider, "未知的登录方式", err)
			return
		}
		api.Fail(c, http.StatusInternalServerError, api.CodeSigninFailed, "无法发起登录", err)
		return
	}

	c.Redirect(http.StatusFound, authorizeURL)
}

// StartURL 仅返回授权URL，由调用方自行跳转
func (h *SigninHandler) StartURL(c *gin.Context) {
	authorizeURL, err := h.signinService.BeginAuthorization(
		c.Request.Context(),
		c.Param("provider"),
		c.Request.UserAgent(),
		c.Query("redirect"),
	)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotFound) {
			api.Fail(c, http.StatusNotFound, api.CodeUnknownProvider, "未知的登录方式", err)
			return
		}
		api.Fail(c, http.StatusInternalServerError, api.CodeSigninFailed, "无法发起登录", err)
		return
	}

	api.Success(c, gin.H{"url": authorizeURL})
}

// Callback 处理提供方回调
// 识别、兑换、落地会话后跳回redirect参数指定的路由或默认首页；
// 任何失败只产生一条统一的失败提示，不泄露提供方错误细节
func (h *SigninHandler) Callback(c *gin.Context) {
	sid := h.ensureSID(c)

	outcome, err := h.signinService.ResumeAfterCallback(
		c.Request.Context(),
		sid,
		c.Request.URL.Query(),
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		logger.Warn("signin callback failed: %v", err)
		c.Redirect(http.StatusFound, signinFailedRoute)
		return
	}
	if outcome == nil {
		// 非回调URL，回到登录页
		c.Redirect(http.StatusFound, signinRoute)
		return
	}

	// 凭证写入Cookie，后续请求既可走Authorization头也可走Cookie
	c.SetCookie(middleware.CookieToken, outcome.Result.Token, h.tokenMaxAge, "/", "", false, true)
	c.Redirect(http.StatusFound, outcome.Redirect)
}

// Providers 返回已注册提供方及内置浏览器判定
func (h *SigninHandler) Providers(c *gin.Context) {
	api.Success(c, h.signinService.Providers(c.Request.UserAgent()))
}

// ensureSID 读取浏览器会话标识，不存在时签发
func (h *SigninHandler) ensureSID(c *gin.Context) string {
	if sid, err := c.Cookie(h.cookieName); err == nil && sid != "" {
		return sid
	}
	sid := uuid.New().String()
	c.SetCookie(h.cookieName, sid, sidCookieMaxAge, "/", "", false, true)
	return sid
}
