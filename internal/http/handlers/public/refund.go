package public

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

type requestRefundRequest struct {
	OrderID        uint         `json:"order_id" binding:"required"`
	RefundType     string       `json:"refund_type"`
	Amount         models.Money `json:"amount"`
	RefundQuantity int          `json:"refund_quantity"`
	Reason         string       `json:"reason"`
}

// RequestRefund 提交退款申请
func (h *Handler) RequestRefund(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	var req requestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	refund, err := h.refundService.Request(service.RequestRefundInput{
		OrderID:        req.OrderID,
		UserID:         userID,
		RefundType:     req.RefundType,
		Amount:         req.Amount,
		RefundQuantity: req.RefundQuantity,
		Reason:         req.Reason,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, refund)
}

// GetRefund 退款申请详情
func (h *Handler) GetRefund(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	refundID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	refund, err := h.refundService.GetByID(refundID, userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, refund)
}

// ListRefunds 我的退款申请列表
func (h *Handler) ListRefunds(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.refundService.List(repository.RefundListFilter{
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
