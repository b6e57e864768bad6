package admin

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 管理员登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	token, adminUser, err := h.authService.AdminLogin(req.Username, req.Password)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token": token,
		"admin": adminUser,
	})
}
