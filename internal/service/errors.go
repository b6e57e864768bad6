package service

import "errors"

// 业务错误定义，处理器通过 errors.Is 映射响应码
var (
	ErrNotFound         = errors.New("记录不存在")
	ErrPermissionDenied = errors.New("无权操作")
	ErrUserDisabled     = errors.New("账号已被禁用")
	ErrConfigInvalid    = errors.New("配置不合法")

	ErrPriceNotConfigured = errors.New("商品价格未配置")
	ErrStockInsufficient  = errors.New("库存不足")

	ErrOrderStatusInvalid = errors.New("当前订单状态不允许该操作")

	ErrCommissionStatusInvalid = errors.New("当前佣金状态不允许该操作")

	ErrRefundStatusInvalid    = errors.New("当前退款状态不允许该操作")
	ErrRefundNotSupported     = errors.New("该订单不支持在线申请售后")
	ErrRefundAmountInvalid    = errors.New("退款金额不合法")
	ErrRefundAmountExceeded   = errors.New("超出可退金额")
	ErrRefundQuantityExceeded = errors.New("超出可退数量")
	ErrRefundWindowExpired    = errors.New("已超过售后申请期限")
	ErrRefundAlreadyActive    = errors.New("该订单已有处理中的退款申请")

	ErrWalletInsufficientBalance = errors.New("余额不足")
	ErrWalletDebtOutstanding     = errors.New("存在未清偿欠款，暂不可提现")
	ErrWithdrawalAmountInvalid   = errors.New("提现金额不在允许范围内")
	ErrWithdrawalDailyLimit      = errors.New("已达单日提现次数上限")
	ErrWithdrawalStatusInvalid   = errors.New("当前提现状态不允许该操作")

	ErrAuthInvalidCredentials = errors.New("账号或密码错误")

	ErrParentAlreadyBound = errors.New("已绑定上级，不可重复绑定")
	ErrParentInvalid      = errors.New("上级用户不合法")
)
