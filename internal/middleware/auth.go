// Package middleware 提供 HTTP 中间件
package middleware

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
)

// 认证后写入 gin.Context 的键
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserType = "user_type"
	ContextKeyRole     = "role"
)

// AuthConfig 认证配置
type AuthConfig struct {
	JWTManager *jwt.Manager
	// UserType 限定主体类型，为空时住客与操作员均可
	UserType string
}

// Auth 要求有效的访问令牌
func Auth(cfg *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			denyUnauthorized(c, "请先登录")
			return
		}

		claims, err := cfg.JWTManager.ParseAccessToken(token)
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			denyUnauthorized(c, "登录已过期，请重新登录")
			return
		case err != nil:
			denyUnauthorized(c, "无效的令牌")
			return
		}

		if cfg.UserType != "" && claims.UserType != cfg.UserType {
			response.Forbidden(c, "无权访问")
			c.Abort()
			return
		}

		bindIdentity(c, claims)
		c.Next()
	}
}

// UserAuth 仅住客
func UserAuth(m *jwt.Manager) gin.HandlerFunc {
	return Auth(&AuthConfig{JWTManager: m, UserType: jwt.UserTypeUser})
}

// AdminAuth 仅操作员
func AdminAuth(m *jwt.Manager) gin.HandlerFunc {
	return Auth(&AuthConfig{JWTManager: m, UserType: jwt.UserTypeAdmin})
}

// OptionalAuth 公开接口识别已登录的请求者，缺少或无效的令牌按匿名放行
func OptionalAuth(m *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := m.ParseAccessToken(token); err == nil {
				bindIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func denyUnauthorized(c *gin.Context, message string) {
	response.Unauthorized(c, message)
	c.Abort()
}

func bindIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyUserType, claims.UserType)
	c.Set(ContextKeyRole, claims.Role)
}

// bearerToken 依次读取 Authorization 头、token 查询参数（浏览器 WebSocket）、token Cookie
func bearerToken(c *gin.Context) string {
	if scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	token, _ := c.Cookie("token")
	return token
}

// GetUserID 当前请求者 ID，匿名为 0
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}

// GetUserType 当前请求者类型
func GetUserType(c *gin.Context) string {
	return c.GetString(ContextKeyUserType)
}

// GetRole 操作员角色
func GetRole(c *gin.Context) string {
	return c.GetString(ContextKeyRole)
}

// IsOperator 当前请求是否来自操作员
func IsOperator(c *gin.Context) bool {
	return GetUserType(c) == jwt.UserTypeAdmin
}

// IsLoggedIn 是否已通过认证
func IsLoggedIn(c *gin.Context) bool {
	_, ok := c.Get(ContextKeyUserID)
	return ok
}

// GetAdminID 操作员 ID，非操作员为 0
func GetAdminID(c *gin.Context) int64 {
	if !IsOperator(c) {
		return 0
	}
	return GetUserID(c)
}
