package shared

import (
	"errors"

	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondServiceError 把业务错误映射为统一响应
//
// 已知业务错误按语义返回 4xx 与错误消息本身，未知错误记录日志并返回 500。
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		response.Success(c, nil)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrUserDisabled),
		errors.Is(err, service.ErrAuthInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrPriceNotConfigured),
		errors.Is(err, service.ErrStockInsufficient),
		errors.Is(err, service.ErrOrderStatusInvalid),
		errors.Is(err, service.ErrCommissionStatusInvalid),
		errors.Is(err, service.ErrRefundStatusInvalid),
		errors.Is(err, service.ErrRefundAmountInvalid),
		errors.Is(err, service.ErrRefundAmountExceeded),
		errors.Is(err, service.ErrRefundQuantityExceeded),
		errors.Is(err, service.ErrRefundWindowExpired),
		errors.Is(err, service.ErrRefundAlreadyActive),
		errors.Is(err, service.ErrWalletInsufficientBalance),
		errors.Is(err, service.ErrWalletDebtOutstanding),
		errors.Is(err, service.ErrWithdrawalAmountInvalid),
		errors.Is(err, service.ErrWithdrawalDailyLimit),
		errors.Is(err, service.ErrWithdrawalStatusInvalid),
		errors.Is(err, service.ErrParentAlreadyBound),
		errors.Is(err, service.ErrParentInvalid),
		errors.Is(err, service.ErrConfigInvalid):
		response.BadRequest(c, err.Error())
	default:
		RequestLog(c).Errorw("handler_error", "error", err)
		response.Error(c, response.CodeInternal, "服务器内部错误")
	}
}
