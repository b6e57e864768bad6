package admin

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListRefunds 退款申请列表
func (h *Handler) ListRefunds(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.refundService.List(repository.RefundListFilter{
		Status:   c.Query("status"),
		RefundNo: c.Query("refund_no"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}

// ApproveRefund 审核通过退款并执行
func (h *Handler) ApproveRefund(c *gin.Context) {
	adminID, ok := shared.AdminID(c)
	if !ok {
		return
	}
	refundID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	refund, err := h.refundService.Approve(refundID, adminID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, refund)
}

type rejectRefundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectRefund 驳回退款申请
func (h *Handler) RejectRefund(c *gin.Context) {
	adminID, ok := shared.AdminID(c)
	if !ok {
		return
	}
	refundID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req rejectRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	refund, err := h.refundService.Reject(refundID, adminID, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, refund)
}

// CompleteRefund 重试执行已审核退款
func (h *Handler) CompleteRefund(c *gin.Context) {
	refundID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	refund, err := h.refundService.Complete(refundID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, refund)
}
