package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// RequireRoles 要求操作员具备指定角色之一，需注册在 AdminAuth 之后
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		if !IsLoggedIn(c) {
			denyUnauthorized(c, "请先登录")
			return
		}
		if !IsOperator(c) || !allowed[GetRole(c)] {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin 仅超级管理员
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleCodeSuperAdmin)
}
