package public

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Phone     string `json:"phone" binding:"required"`
	Nickname  string `json:"nickname"`
	InviterID uint   `json:"inviter_id"`
}

// Login 用户登录（未注册手机号自动注册，inviter_id 非零时绑定上级）
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	token, user, err := h.authService.UserLogin(req.Phone, req.Nickname, req.InviterID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// Profile 查询当前用户资料
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, user)
}
