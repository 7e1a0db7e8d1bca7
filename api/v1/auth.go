package v1

import (
	"errors"
	"net/http"

	"breedauth/internal/model"
	"breedauth/internal/service"
	"breedauth/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler 认证处理器(账号密码/手机验证码登录与注销)
type AuthHandler struct {
	signinService service.SigninService
	cookieName    string
	tokenMaxAge   int
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(signinService service.SigninService, cookieName string, tokenMaxAge int) *AuthHandler {
	return &AuthHandler{
		signinService: signinService,
		cookieName:    cookieName,
		tokenMaxAge:   tokenMaxAge,
	}
}

// Login 账号密码/手机验证码登录
// 登录请求转交记录后端，成功后与第三方流程共用同一会话落地路径
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid := h.ensureSID(c)
	result, err := h.signinService.AccountLogin(c.Request.Context(), sid, &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, service.ErrLoginRejected) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败，请重试"})
		return
	}

	c.SetCookie(middleware.CookieToken, result.Token, h.tokenMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, result)
}

// Logout 注销当前会话
func (h *AuthHandler) Logout(c *gin.Context) {
	sid, err := c.Cookie(h.cookieName)
	if err != nil || sid == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := h.signinService.Logout(c.Request.Context(), sid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注销失败"})
		return
	}

	// 清除凭证Cookie
	c.SetCookie(middleware.CookieToken, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ensureSID 读取浏览器会话标识，不存在时签发
func (h *AuthHandler) ensureSID(c *gin.Context) string {
	if sid, err := c.Cookie(h.cookieName); err == nil && sid != "" {
		return sid
	}
	sid := uuid.New().String()
	c.SetCookie(h.cookieName, sid, sidCookieMaxAge, "/", "", false, true)
	return sid
}
