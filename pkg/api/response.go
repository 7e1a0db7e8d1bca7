package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 登录网关业务错误码，随Response.Code下发；成功时与HTTP状态一致
const (
	// CodeUnknownProvider 未注册的登录提供方
	CodeUnknownProvider = 40001
	// CodeSigninFailed 登录流程失败(兑换失败、state不合法或会话未落地)
	CodeSigninFailed = 40002
	// CodeUnauthenticated 未携带有效会话
	CodeUnauthenticated = 40003
)

// Response 通用API响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "操作成功",
		Data:    data,
	})
}

// Error 返回错误响应(业务码沿用HTTP状态码)
func Error(c *gin.Context, code int, message string, err error) {
	Fail(c, code, code, message, err)
}

// Fail 返回携带业务错误码的错误响应
func Fail(c *gin.Context, status, code int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	c.JSON(status, Response{
		Code:    code,
		Message: message,
		Error:   errMsg,
	})
}
