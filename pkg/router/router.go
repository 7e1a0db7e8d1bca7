package router

import (
	"net/http"

	v1 "breedauth/api/v1"
	"breedauth/pkg/middleware"
	"breedauth/pkg/version"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器
type Router struct {
	engine         *gin.Engine
	authMiddleware *middleware.AuthMiddleware
	signinHandler  *v1.SigninHandler
	authHandler    *v1.AuthHandler
	sessionHandler *v1.SessionHandler
}

// NewRouter 创建路由管理器实例
func NewRouter(
	engine *gin.Engine,
	authMiddleware *middleware.AuthMiddleware,
	signinHandler *v1.SigninHandler,
	authHandler *v1.AuthHandler,
	sessionHandler *v1.SessionHandler,
) *Router {
	return &Router{
		engine:         engine,
		authMiddleware: authMiddleware,
		signinHandler:  signinHandler,
		authHandler:    authHandler,
		sessionHandler: sessionHandler,
	}
}

// RegisterRoutes 注册所有路由
func (r *Router) RegisterRoutes() {
	// 健康检查
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": version.GetVersion(),
		})
	})

	// 第三方登录跳转与回调(整页导航，必须在根路径)
	r.engine.GET("/signin/:provider", r.signinHandler.Start)
	r.engine.GET("/signin/:provider/url", r.signinHandler.StartURL)
	r.engine.GET("/signin/callback", r.signinHandler.Callback)

	// API v1
	api := r.engine.Group("/api/v1")
	{
		// 注册认证相关路由
		r.registerAuthRoutes(api)
		// 注册登录提供方相关路由
		r.registerSigninRoutes(api)
		// 注册会话相关路由
		r.registerSessionRoutes(api)
	}
}

// registerAuthRoutes 注册认证相关路由
func (r *Router) registerAuthRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")
	{
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/logout", r.authHandler.Logout)
	}
}

// registerSigninRoutes 注册登录提供方相关路由
func (r *Router) registerSigninRoutes(group *gin.RouterGroup) {
	signin := group.Group("/signin")
	{
		signin.GET("/providers", r.signinHandler.Providers)
	}
}

// registerSessionRoutes 注册会话相关路由(需认证)
func (r *Router) registerSessionRoutes(group *gin.RouterGroup) {
	session := group.Group("/session")
	session.Use(r.authMiddleware.HandleAuth())
	{
		session.GET("/current", r.sessionHandler.CurrentUser)
		session.GET("/records", r.sessionHandler.Records)
	}
}
