package v1

import (
	"net/http"

	"breedauth/internal/model"
	"breedauth/internal/service"
	"breedauth/pkg/api"
	"breedauth/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// SessionHandler 会话查询处理器
type SessionHandler struct {
	signinService service.SigninService
}

// NewSessionHandler 创建会话查询处理器实例
func NewSessionHandler(signinService service.SigninService) *SessionHandler {
	return &SessionHandler{signinService: signinService}
}

// CurrentUser 返回当前登录用户的控制台投影
// 由认证中间件校验凭证并注入会话
func (h *SessionHandler) CurrentUser(c *gin.Context) {
	session := h.sessionFromContext(c)
	if session == nil || session.CurrentUser == nil {
		api.Fail(c, http.StatusUnauthorized, api.CodeUnauthenticated, "未登录", nil)
		return
	}

	api.Success(c, session.CurrentUser)
}

// Records 返回当前用户最近的登录记录
func (h *SessionHandler) Records(c *gin.Context) {
	session := h.sessionFromContext(c)
	if session == nil {
		api.Fail(c, http.StatusUnauthorized, api.CodeUnauthenticated, "未登录", nil)
		return
	}

	records, err := h.signinService.RecentLogins(c.Request.Context(), session.UserID)
	if err != nil {
		api.Error(c, http.StatusInternalServerError, "查询登录记录失败", err)
		return
	}

	api.Success(c, records)
}

// sessionFromContext 读取认证中间件注入的会话
func (h *SessionHandler) sessionFromContext(c *gin.Context) *model.Session {
	value, exists := c.Get(middleware.ContextKeySession)
	if !exists {
		return nil
	}
	session, ok := value.(*model.Session)
	if !ok || !session.Authenticated() {
		return nil
	}
	return session
}
