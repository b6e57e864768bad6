package shared

import (
	"github.com/fenxiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ContextUint 从上下文读取 uint 值，缺失或类型错误时统一返回 401
func ContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, "未登录或登录已过期")
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			response.Unauthorized(c, "未登录或登录已过期")
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			response.Unauthorized(c, "未登录或登录已过期")
			return 0, false
		}
		return uint(v), true
	default:
		response.Unauthorized(c, "未登录或登录已过期")
		return 0, false
	}
}

// UserID 读取当前登录用户 ID
func UserID(c *gin.Context) (uint, bool) {
	return ContextUint(c, "user_id")
}

// AdminID 读取当前登录管理员 ID
func AdminID(c *gin.Context) (uint, bool) {
	return ContextUint(c, "admin_id")
}
