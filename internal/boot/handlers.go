package boot

import (
	v1 "breedauth/api/v1"
	"breedauth/pkg/config"
	"breedauth/pkg/middleware"
	"breedauth/pkg/router"

	"github.com/gin-gonic/gin"
)

// defaultSIDCookieName 未配置时的浏览器会话标识Cookie名
const defaultSIDCookieName = "breedauth_sid"

// Handlers 包含所有HTTP处理器实例
type Handlers struct {
	SigninHandler  *v1.SigninHandler
	AuthHandler    *v1.AuthHandler
	SessionHandler *v1.SessionHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// InitHandlers 初始化所有HTTP处理器实例
func InitHandlers(cfg *config.Config, services *Services) *Handlers {
	cookieName := cfg.Session.CookieName
	if cookieName == "" {
		cookieName = defaultSIDCookieName
	}

	ttlHours := cfg.Session.TTLHours
	if ttlHours <= 0 {
		ttlHours = defaultSessionTTLHours
	}
	// 凭证Cookie与会话同寿命
	tokenMaxAge := ttlHours * 3600

	return &Handlers{
		SigninHandler:  v1.NewSigninHandler(services.SigninService, cookieName, tokenMaxAge),
		AuthHandler:    v1.NewAuthHandler(services.SigninService, cookieName, tokenMaxAge),
		SessionHandler: v1.NewSessionHandler(services.SigninService),
		AuthMiddleware: middleware.NewAuthMiddleware(services.SigninService, cfg.Server.AuthEnabled),
	}
}

// InitRouter 初始化路由并注册全部路由规则
func InitRouter(engine *gin.Engine, handlers *Handlers) *router.Router {
	r := router.NewRouter(
		engine,
		handlers.AuthMiddleware,
		handlers.SigninHandler,
		handlers.AuthHandler,
		handlers.SessionHandler,
	)
	r.RegisterRoutes()
	return r
}
