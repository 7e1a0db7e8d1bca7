package service

import "errors"

var (
	// ErrInvalidState state令牌缺失、过期或已被消费
	ErrInvalidState = errors.New("invalid or expired state token")
	// ErrLoginRejected 记录后端拒绝登录(响应缺少token)
	ErrLoginRejected = errors.New("login rejected by backend")
	// ErrUnauthenticated 当前请求未携带有效会话
	ErrUnauthenticated = errors.New("not authenticated")
)
