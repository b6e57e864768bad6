package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/provider"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCommissionPromote, c.handleCommissionPromote)
	mux.HandleFunc(queue.TaskCommissionSettle, c.handleCommissionSettle)
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskOrderAutoConfirm, c.handleOrderAutoConfirm)
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

func (c *Consumer) handleCommissionPromote(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if c.CommissionService == nil {
		logger.Warnw("worker_commission_promote_skip_service_nil")
		return nil
	}
	promoted, err := c.CommissionService.PromoteDueCommissions(time.Now())
	if err != nil {
		logger.Warnw("worker_commission_promote_failed", "error", err)
		return err
	}
	if promoted > 0 {
		logger.Infow("worker_commission_promoted", "count", promoted)
	}
	return nil
}

func (c *Consumer) handleCommissionSettle(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if c.CommissionService == nil {
		logger.Warnw("worker_commission_settle_skip_service_nil")
		return nil
	}
	settled, err := c.CommissionService.SettleApproved(time.Now())
	if err != nil {
		logger.Warnw("worker_commission_settle_failed", "error", err)
		return err
	}
	if settled > 0 {
		logger.Infow("worker_commission_settled", "count", settled)
	}
	return nil
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.HandleTimeoutCancel(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleOrderAutoConfirm(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderAutoConfirmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_auto_confirm_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_auto_confirm_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_auto_confirm_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.HandleAutoConfirm(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			logger.Debugw("worker_order_auto_confirm_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_auto_confirm_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleNotificationDispatch(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_dispatch_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	if err := c.NotificationService.Dispatch(payload); err != nil {
		logger.Warnw("worker_notification_dispatch_failed",
			"user_id", payload.UserID,
			"type", payload.Type,
			"ref_id", payload.RefID,
			"error", err,
		)
		return err
	}
	return nil
}
