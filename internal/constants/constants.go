package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// 分销角色等级常量
const (
	RoleGuest  = 0
	RoleMember = 1
	RoleLeader = 2
	RoleAgent  = 3
)

// 佣金记录状态常量
const (
	CommissionStatusFrozen          = "frozen"
	CommissionStatusPendingApproval = "pending_approval"
	CommissionStatusApproved        = "approved"
	CommissionStatusSettled         = "settled"
	CommissionStatusCancelled       = "cancelled"
)

// 佣金类型常量
const (
	CommissionTypeSelf             = "self"
	CommissionTypeDirect           = "direct"
	CommissionTypeIndirect         = "indirect"
	CommissionTypeGap              = "gap"
	CommissionTypeAgentFulfillment = "agent_fulfillment"
)

// 佣金计算模式常量
const (
	CommissionModeFixed   = "fixed"
	CommissionModePercent = "percent"
)

// 订单履约类型常量
const (
	OrderFulfillmentCompany = "company"
	OrderFulfillmentAgent   = "agent"
	OrderFulfillmentRestock = "restock"
)

// 退款状态常量
const (
	RefundStatusPending   = "pending"
	RefundStatusApproved  = "approved"
	RefundStatusRejected  = "rejected"
	RefundStatusCompleted = "completed"
)

// 退款类型常量
const (
	RefundTypeRefundOnly   = "refund_only"
	RefundTypeReturnRefund = "return_refund"
)

// 提现状态常量
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusApproved   = "approved"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
	WithdrawalStatusFailed     = "failed"
)

// 提现收款方式常量
const (
	WithdrawalMethodAlipay = "alipay"
	WithdrawalMethodWechat = "wechat"
	WithdrawalMethodBank   = "bank"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 通知类型常量
const (
	NotificationTypeCommissionApproved = "commission_approved"
	NotificationTypeCommissionSettled  = "commission_settled"
	NotificationTypeCommissionRejected = "commission_rejected"
	NotificationTypeRefundApproved     = "refund_approved"
	NotificationTypeRefundRejected     = "refund_rejected"
	NotificationTypeRefundCompleted    = "refund_completed"
	NotificationTypeWithdrawalReviewed = "withdrawal_reviewed"
	NotificationTypeRoleUpgraded       = "role_upgraded"
)

// 队列常量
const (
	QueueDefault             = "default"
	TaskCommissionPromote    = "commission:promote"
	TaskCommissionSettle     = "commission:settle"
	TaskOrderTimeoutCancel   = "order:timeout_cancel"
	TaskOrderAutoConfirm     = "order:auto_confirm"
	TaskNotificationDispatch = "notification:dispatch"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "fx"
)

// 设置键常量
const (
	SettingKeyCommissionConfig = "commission_config"
	SettingKeyRefundConfig     = "refund_config"
	SettingKeyWithdrawalConfig = "withdrawal_config"
	SettingKeyUpgradeConfig    = "upgrade_config"
	SettingKeyOrderConfig      = "order_config"
)

// 单号前缀常量
const (
	OrderNoPrefix      = "ORD"
	RefundNoPrefix     = "RF"
	WithdrawalNoPrefix = "WD"
)
