package admin

import (
	"strconv"

	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListWithdrawals 提现申请列表
func (h *Handler) ListWithdrawals(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	rows, total, err := h.walletService.ListWithdrawals(repository.WithdrawalListFilter{
		UserID:         uint(userID),
		WithdrawalNo:   c.Query("withdrawal_no"),
		AccountKeyword: c.Query("account_keyword"),
		Status:         c.Query("status"),
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}

type reviewWithdrawalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// ReviewWithdrawal 审核提现申请
func (h *Handler) ReviewWithdrawal(c *gin.Context) {
	adminID, ok := shared.AdminID(c)
	if !ok {
		return
	}
	withdrawalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reviewWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	withdrawal, err := h.walletService.ReviewWithdrawal(withdrawalID, adminID, req.Approve, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// ProcessWithdrawal 开始打款
func (h *Handler) ProcessWithdrawal(c *gin.Context) {
	withdrawalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	withdrawal, err := h.walletService.MarkWithdrawalProcessing(withdrawalID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// CompleteWithdrawal 标记打款成功
func (h *Handler) CompleteWithdrawal(c *gin.Context) {
	withdrawalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	withdrawal, err := h.walletService.CompleteWithdrawal(withdrawalID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

type failWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FailWithdrawal 标记打款失败并退回余额
func (h *Handler) FailWithdrawal(c *gin.Context) {
	withdrawalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req failWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	withdrawal, err := h.walletService.FailWithdrawal(withdrawalID, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}
