package public

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

type bindParentRequest struct {
	ParentID uint `json:"parent_id" binding:"required"`
}

// BindParent 绑定上级
func (h *Handler) BindParent(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	var req bindParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	if err := h.userService.BindParent(userID, req.ParentID); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "绑定成功", nil)
}

// DistributionStats 分销统计
func (h *Handler) DistributionStats(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	stats, err := h.userService.GetDistributionStats(userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListMyCommissions 我的佣金明细
func (h *Handler) ListMyCommissions(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.commissionSvc.List(repository.CommissionListFilter{
		UserID:   userID,
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}
