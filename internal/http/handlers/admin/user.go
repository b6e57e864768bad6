package admin

import (
	"strconv"

	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListUsers 用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.UserListFilter{
		Keyword:  c.Query("keyword"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("role_level"); raw != "" {
		if level, err := strconv.Atoi(raw); err == nil {
			filter.RoleLevel = &level
		}
	}
	rows, total, err := h.userService.List(filter)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}

// GetUser 用户详情
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// GetUserDistribution 用户分销统计
func (h *Handler) GetUserDistribution(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.userService.GetDistributionStats(id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}
