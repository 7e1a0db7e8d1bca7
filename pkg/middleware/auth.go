package middleware

import (
	"net/http"
	"strings"

	"breedauth/internal/service"
	"breedauth/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	// BearerSchema Bearer认证方案
	BearerSchema = "Bearer "
	// ContextKeySession 上下文中会话信息的键
	ContextKeySession = "session"
	// CookieToken Cookie中登录凭证的键
	CookieToken = "token"
)

// AuthMiddleware 认证中间件
// 后端签发的token对网关是不透明凭证，这里只校验其是否对应一份有效会话
type AuthMiddleware struct {
	signinService service.SigninService
	enabled       bool
}

// NewAuthMiddleware 创建认证中间件实例
func NewAuthMiddleware(signinService service.SigninService, enabled bool) *AuthMiddleware {
	return &AuthMiddleware{
		signinService: signinService,
		enabled:       enabled,
	}
}

// HandleAuth 处理认证
func (m *AuthMiddleware) HandleAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 如果认证被禁用，直接放行
		if !m.enabled {
			c.Next()
			return
		}

		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		session, err := m.signinService.SessionByToken(c.Request.Context(), token)
		if err != nil {
			logger.Error("session lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate token"})
			c.Abort()
			return
		}
		if !session.Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		// 将会话信息存入上下文
		c.Set(ContextKeySession, session)
		c.Set("user_id", session.UserID)
		c.Set("user_role", session.UserRole)
		c.Next()
	}
}

// extractToken 从请求中提取token
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	// 1. 尝试从Authorization头获取
	auth := c.GetHeader("Authorization")
	if auth != "" && strings.HasPrefix(auth, BearerSchema) {
		return auth[len(BearerSchema):]
	}

	// 2. 尝试从Cookie获取
	if cookie, err := c.Cookie(CookieToken); err == nil {
		return cookie
	}

	return ""
}
