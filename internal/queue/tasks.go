package queue

import (
	"encoding/json"

	"github.com/fenxiao-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCommissionPromote 冻结佣金转待审核任务
	TaskCommissionPromote = constants.TaskCommissionPromote
	// TaskCommissionSettle 已审核佣金结算任务
	TaskCommissionSettle = constants.TaskCommissionSettle
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskOrderAutoConfirm 自动确认收货任务
	TaskOrderAutoConfirm = constants.TaskOrderAutoConfirm
	// TaskNotificationDispatch 站内通知投递任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// OrderAutoConfirmPayload 自动确认收货任务载荷
type OrderAutoConfirmPayload struct {
	OrderID uint `json:"order_id"`
}

// NotificationDispatchPayload 站内通知任务载荷
type NotificationDispatchPayload struct {
	UserID  uint   `json:"user_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
	RefID   string `json:"ref_id"`
}

// NewCommissionPromoteTask 创建佣金转待审核任务
func NewCommissionPromoteTask() *asynq.Task {
	return asynq.NewTask(TaskCommissionPromote, nil)
}

// NewCommissionSettleTask 创建佣金结算任务
func NewCommissionSettleTask() *asynq.Task {
	return asynq.NewTask(TaskCommissionSettle, nil)
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewOrderAutoConfirmTask 创建自动确认收货任务
func NewOrderAutoConfirmTask(payload OrderAutoConfirmPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderAutoConfirm, body), nil
}

// NewNotificationDispatchTask 创建站内通知任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}
