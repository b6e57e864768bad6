package public

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

// WalletOverview 钱包概览
func (h *Handler) WalletOverview(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	overview, err := h.walletService.GetOverview(userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, overview)
}

type requestWithdrawalRequest struct {
	Amount      models.Money `json:"amount"`
	Method      string       `json:"method" binding:"required"`
	AccountInfo models.JSON  `json:"account_info"`
}

// RequestWithdrawal 提交提现申请
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	var req requestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	withdrawal, err := h.walletService.RequestWithdrawal(service.RequestWithdrawalInput{
		UserID:      userID,
		Amount:      req.Amount,
		Method:      req.Method,
		AccountInfo: req.AccountInfo,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// ListWithdrawals 我的提现记录
func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.walletService.ListWithdrawals(repository.WithdrawalListFilter{
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
