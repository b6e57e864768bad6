package admin

import (
	"strconv"
	"time"

	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCommissions 佣金记录列表
func (h *Handler) ListCommissions(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	orderID, _ := strconv.ParseUint(c.Query("order_id"), 10, 64)
	rows, total, err := h.commissionSvc.List(repository.CommissionListFilter{
		UserID:         uint(userID),
		OrderID:        uint(orderID),
		Status:         c.Query("status"),
		CommissionType: c.Query("type"),
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}

// ApproveCommission 审核通过单条佣金
func (h *Handler) ApproveCommission(c *gin.Context) {
	adminID, ok := shared.AdminID(c)
	if !ok {
		return
	}
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.commissionSvc.Approve(entryID, adminID, time.Now())
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, entry)
}

type batchApproveRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

// BatchApproveCommissions 批量审核通过
func (h *Handler) BatchApproveCommissions(c *gin.Context) {
	adminID, ok := shared.AdminID(c)
	if !ok {
		return
	}
	var req batchApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	succeeded, err := h.commissionSvc.BatchApprove(req.IDs, adminID, time.Now())
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"requested": len(req.IDs),
		"succeeded": succeeded,
	})
}

type cancelCommissionRequest struct {
	Reason string `json:"reason"`
}

// CancelCommission 作废佣金记录
func (h *Handler) CancelCommission(c *gin.Context) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req cancelCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	if err := h.commissionSvc.Cancel(entryID, req.Reason, time.Now()); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "已作废", nil)
}
