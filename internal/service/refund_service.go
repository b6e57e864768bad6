package service

import (
	"fmt"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundService 退款与佣金追回服务
//
// 退款完成时未结算佣金直接作废，已结算佣金从受益人余额追回，
// 余额不足的部分转入欠款，由后续佣金结算自动抵扣。
type RefundService struct {
	refundRepo     repository.RefundRepository
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	productRepo    repository.ProductRepository
	commissionRepo repository.CommissionRepository
	settingService *SettingService
	notifier       *NotificationService
}

// NewRefundService 创建退款服务
func NewRefundService(
	refundRepo repository.RefundRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	commissionRepo repository.CommissionRepository,
	settingService *SettingService,
	notifier *NotificationService,
) *RefundService {
	return &RefundService{
		refundRepo:     refundRepo,
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		productRepo:    productRepo,
		commissionRepo: commissionRepo,
		settingService: settingService,
		notifier:       notifier,
	}
}

// RequestRefundInput 退款申请参数
type RequestRefundInput struct {
	OrderID        uint         `json:"order_id"`
	UserID         uint         `json:"user_id"`
	RefundType     string       `json:"refund_type"`
	Amount         models.Money `json:"amount"`
	RefundQuantity int          `json:"refund_quantity"`
	Reason         string       `json:"reason"`
}

// Request 提交退款申请
func (s *RefundService) Request(input RequestRefundInput) (*models.Refund, error) {
	setting, err := s.settingService.GetRefundSetting()
	if err != nil {
		return nil, err
	}
	if input.RefundType != constants.RefundTypeReturnRefund {
		input.RefundType = constants.RefundTypeRefundOnly
	}

	var refund *models.Refund
	err = s.refundRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: 订单 %d", ErrNotFound, input.OrderID)
		}
		if order.UserID != input.UserID {
			return ErrPermissionDenied
		}

		switch order.Status {
		case constants.OrderStatusPaid, constants.OrderStatusShipped:
		case constants.OrderStatusCompleted:
			if order.CompletedAt != nil {
				deadline := order.CompletedAt.Add(time.Duration(setting.MaxRefundDays) * 24 * time.Hour)
				if time.Now().After(deadline) {
					return fmt.Errorf("%w: 已超过完成后 %d 天", ErrRefundWindowExpired, setting.MaxRefundDays)
				}
			}
		default:
			return fmt.Errorf("%w: %s", ErrOrderStatusInvalid, order.Status)
		}

		// 采购入仓单走单独的线下退货流程
		if order.FulfillmentType == constants.OrderFulfillmentRestock {
			return fmt.Errorf("%w: 采购订单请联系客服处理退货", ErrRefundNotSupported)
		}

		if !input.Amount.Decimal.IsPositive() {
			return ErrRefundAmountInvalid
		}

		refunded, err := s.refundRepo.WithTx(tx).SumCompletedAmountByOrder(order.ID)
		if err != nil {
			return err
		}
		refundable := order.TotalAmount.Decimal.Sub(refunded)
		if input.Amount.Decimal.GreaterThan(refundable) {
			return fmt.Errorf("%w: 超出可退金额 ¥%s", ErrRefundAmountExceeded, refundable.Round(2).StringFixed(2))
		}

		if input.RefundType == constants.RefundTypeReturnRefund {
			remaining := order.Quantity - order.RefundedQuantity
			if input.RefundQuantity <= 0 || input.RefundQuantity > remaining {
				return fmt.Errorf("%w: 可退数量 %d", ErrRefundQuantityExceeded, remaining)
			}
		} else {
			input.RefundQuantity = 0
		}

		active, err := s.refundRepo.WithTx(tx).CountActiveByOrder(order.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrRefundAlreadyActive
		}

		refund = &models.Refund{
			RefundNo:       newBusinessNo(constants.RefundNoPrefix),
			OrderID:        order.ID,
			UserID:         input.UserID,
			RefundType:     input.RefundType,
			Amount:         models.NewMoneyFromDecimal(input.Amount.Decimal.Round(2)),
			RefundQuantity: input.RefundQuantity,
			Reason:         input.Reason,
			Status:         constants.RefundStatusPending,
		}
		return s.refundRepo.WithTx(tx).Create(refund)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("refund_requested", "refund_id", refund.ID, "refund_no", refund.RefundNo,
		"order_id", refund.OrderID, "amount", refund.Amount.String())
	return refund, nil
}

// Approve 审核通过退款申请并执行退款
func (s *RefundService) Approve(refundID, reviewerID uint) (*models.Refund, error) {
	var refund *models.Refund
	err := s.refundRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.refundRepo.WithTx(tx)
		locked, err := repo.GetByIDForUpdate(refundID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 退款申请 %d", ErrNotFound, refundID)
		}
		if locked.Status != constants.RefundStatusPending {
			return fmt.Errorf("%w: %s", ErrRefundStatusInvalid, locked.Status)
		}
		now := time.Now()
		locked.Status = constants.RefundStatusApproved
		locked.ReviewedBy = &reviewerID
		locked.ReviewedAt = &now
		if err := repo.Update(locked); err != nil {
			return err
		}
		refund = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.SendAsync(refund.UserID, constants.NotificationTypeRefundApproved,
		"退款审核通过", fmt.Sprintf("退款单 %s 已审核通过，退款处理中。", refund.RefundNo),
		fmt.Sprintf("refund:%d:approved", refund.ID))

	// 无外部支付通道，审核通过后直接执行资金回冲；
	// 失败时申请停留在 approved，可重试 Complete。
	completed, err := s.Complete(refund.ID)
	if err != nil {
		logger.Errorw("refund_complete_after_approve_failed", "refund_id", refund.ID, "error", err)
		return refund, nil
	}
	return completed, nil
}

// Reject 驳回退款申请
func (s *RefundService) Reject(refundID, reviewerID uint, reason string) (*models.Refund, error) {
	var refund *models.Refund
	err := s.refundRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.refundRepo.WithTx(tx)
		locked, err := repo.GetByIDForUpdate(refundID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 退款申请 %d", ErrNotFound, refundID)
		}
		if locked.Status != constants.RefundStatusPending {
			return fmt.Errorf("%w: %s", ErrRefundStatusInvalid, locked.Status)
		}
		now := time.Now()
		locked.Status = constants.RefundStatusRejected
		locked.RejectReason = reason
		locked.ReviewedBy = &reviewerID
		locked.ReviewedAt = &now
		if err := repo.Update(locked); err != nil {
			return err
		}
		refund = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.SendAsync(refund.UserID, constants.NotificationTypeRefundRejected,
		"退款申请被驳回", fmt.Sprintf("退款单 %s 被驳回：%s", refund.RefundNo, reason),
		fmt.Sprintf("refund:%d:rejected", refund.ID))
	return refund, nil
}

// Complete 执行退款：回冲订单金额并处理佣金作废与追回
func (s *RefundService) Complete(refundID uint) (*models.Refund, error) {
	var refund *models.Refund
	err := s.refundRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.refundRepo.WithTx(tx)
		locked, err := repo.GetByIDForUpdate(refundID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 退款申请 %d", ErrNotFound, refundID)
		}
		if locked.Status != constants.RefundStatusApproved {
			return fmt.Errorf("%w: %s", ErrRefundStatusInvalid, locked.Status)
		}

		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(locked.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: 订单 %d", ErrNotFound, locked.OrderID)
		}

		// 全额退款撤销全部佣金；部分退款按退款比例扣减，
		// 99% 以上视为全额，避免小数误差卡在部分路径
		ratio := decimal.NewFromInt(1)
		if order.TotalAmount.Decimal.IsPositive() {
			ratio = locked.Amount.Decimal.Div(order.TotalAmount.Decimal)
		}
		fullRefund := ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.99))

		var clawback, debtAccrued decimal.Decimal
		if fullRefund {
			clawback, debtAccrued, err = s.revokeOrderCommissionsTx(tx, order.ID, locked.RefundNo)
		} else {
			clawback, debtAccrued, err = s.reduceOrderCommissionsTx(tx, order.ID, ratio, locked.RefundNo)
		}
		if err != nil {
			return err
		}

		now := time.Now()
		locked.Status = constants.RefundStatusCompleted
		locked.ClawbackAmount = models.NewMoneyFromDecimal(clawback)
		locked.DebtAccrued = models.NewMoneyFromDecimal(debtAccrued)
		locked.CompletedAt = &now
		if err := repo.Update(locked); err != nil {
			return err
		}

		order.RefundedAmount = models.NewMoneyFromDecimal(order.RefundedAmount.Decimal.Add(locked.Amount.Decimal))
		order.RefundedQuantity += locked.RefundQuantity
		if fullRefund {
			order.MiddleCommissionTotal = models.MoneyZero()
			order.CommissionSettled = true
		} else {
			middle, err := s.commissionRepo.WithTx(tx).SumByOrder(order.ID, []string{
				constants.CommissionStatusFrozen,
				constants.CommissionStatusPendingApproval,
				constants.CommissionStatusApproved,
				constants.CommissionStatusSettled,
			}, []string{
				constants.CommissionTypeDirect,
				constants.CommissionTypeIndirect,
				constants.CommissionTypeGap,
			})
			if err != nil {
				return err
			}
			order.MiddleCommissionTotal = models.NewMoneyFromDecimal(middle)
		}
		if order.RefundedAmount.Decimal.GreaterThanOrEqual(order.TotalAmount.Decimal) {
			order.Status = constants.OrderStatusRefunded
		}
		if err := s.orderRepo.WithTx(tx).Update(order); err != nil {
			return err
		}

		// 退货回补库存
		if locked.RefundQuantity > 0 {
			if err := s.productRepo.WithTx(tx).AdjustStock(order.ProductID, order.SKUID, locked.RefundQuantity); err != nil {
				return err
			}
		}
		refund = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.SendAsync(refund.UserID, constants.NotificationTypeRefundCompleted,
		"退款已完成", fmt.Sprintf("退款单 %s 的 ¥%s 已退回。", refund.RefundNo, refund.Amount.String()),
		fmt.Sprintf("refund:%d:completed", refund.ID))

	logger.Infow("refund_completed", "refund_id", refund.ID, "refund_no", refund.RefundNo,
		"clawback", refund.ClawbackAmount.String(), "debt_accrued", refund.DebtAccrued.String())
	return refund, nil
}

// revokeOrderCommissionsTx 作废订单未结算佣金并追回已结算佣金
//
// 返回追回总额与转入欠款的金额。
func (s *RefundService) revokeOrderCommissionsTx(tx *gorm.DB, orderID uint, refundNo string) (decimal.Decimal, decimal.Decimal, error) {
	commissionRepo := s.commissionRepo.WithTx(tx)
	userRepo := s.userRepo.WithTx(tx)

	entries, err := commissionRepo.ListByOrderForUpdate(orderID, []string{
		constants.CommissionStatusFrozen,
		constants.CommissionStatusPendingApproval,
		constants.CommissionStatusApproved,
		constants.CommissionStatusSettled,
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	clawback := decimal.Zero
	debtAccrued := decimal.Zero
	reason := fmt.Sprintf("订单退款 %s", refundNo)

	for i := range entries {
		entry := &entries[i]

		if entry.Status == constants.CommissionStatusSettled {
			user, err := userRepo.GetByIDForUpdate(entry.UserID)
			if err != nil {
				return decimal.Zero, decimal.Zero, err
			}
			if user == nil {
				return decimal.Zero, decimal.Zero, fmt.Errorf("%w: 受益人 %d", ErrNotFound, entry.UserID)
			}

			amount := entry.Amount.Decimal
			debit := decimal.Min(amount, user.Balance.Decimal)
			shortfall := amount.Sub(debit)

			user.Balance = models.NewMoneyFromDecimal(user.Balance.Decimal.Sub(debit))
			user.DebtAmount = models.NewMoneyFromDecimal(user.DebtAmount.Decimal.Add(shortfall))
			if err := userRepo.Update(user); err != nil {
				return decimal.Zero, decimal.Zero, err
			}

			clawback = clawback.Add(amount)
			debtAccrued = debtAccrued.Add(shortfall)
			if shortfall.IsPositive() {
				entry.Remark = appendRemark(entry.Remark,
					fmt.Sprintf("全额退款扣回¥%s，欠款¥%s", debit.Round(2).StringFixed(2), shortfall.Round(2).StringFixed(2)))
				logger.Warnw("commission_clawback_debt",
					"entry_id", entry.ID, "user_id", user.ID,
					"amount", amount.Round(2).StringFixed(2),
					"debt", shortfall.Round(2).StringFixed(2),
				)
			} else {
				entry.Remark = appendRemark(entry.Remark, fmt.Sprintf("全额退款扣回¥%s", amount.Round(2).StringFixed(2)))
			}
		}

		entry.Status = constants.CommissionStatusCancelled
		entry.CancelReason = reason
		if err := commissionRepo.Update(entry); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}
	return clawback.Round(2), debtAccrued.Round(2), nil
}

// reduceOrderCommissionsTx 部分退款按退款比例扣减佣金
//
// 未结算记录扣减金额，扣至零即作废；已结算记录按比例从余额扣回，
// 不足部分转欠款，记录状态保持不变。返回追回总额与转入欠款的金额。
func (s *RefundService) reduceOrderCommissionsTx(tx *gorm.DB, orderID uint, ratio decimal.Decimal, refundNo string) (decimal.Decimal, decimal.Decimal, error) {
	commissionRepo := s.commissionRepo.WithTx(tx)
	userRepo := s.userRepo.WithTx(tx)

	entries, err := commissionRepo.ListByOrderForUpdate(orderID, []string{
		constants.CommissionStatusFrozen,
		constants.CommissionStatusPendingApproval,
		constants.CommissionStatusApproved,
		constants.CommissionStatusSettled,
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	clawback := decimal.Zero
	debtAccrued := decimal.Zero

	for i := range entries {
		entry := &entries[i]
		reduce := entry.Amount.Decimal.Mul(ratio).Round(2)
		if !reduce.IsPositive() {
			continue
		}

		if entry.Status == constants.CommissionStatusSettled {
			user, err := userRepo.GetByIDForUpdate(entry.UserID)
			if err != nil {
				return decimal.Zero, decimal.Zero, err
			}
			if user == nil {
				return decimal.Zero, decimal.Zero, fmt.Errorf("%w: 受益人 %d", ErrNotFound, entry.UserID)
			}

			debit := decimal.Min(reduce, user.Balance.Decimal)
			shortfall := reduce.Sub(debit)

			user.Balance = models.NewMoneyFromDecimal(user.Balance.Decimal.Sub(debit))
			user.DebtAmount = models.NewMoneyFromDecimal(user.DebtAmount.Decimal.Add(shortfall))
			if err := userRepo.Update(user); err != nil {
				return decimal.Zero, decimal.Zero, err
			}

			clawback = clawback.Add(reduce)
			debtAccrued = debtAccrued.Add(shortfall)
			if shortfall.IsPositive() {
				entry.Remark = appendRemark(entry.Remark,
					fmt.Sprintf("部分退款扣回¥%s，欠款¥%s", debit.Round(2).StringFixed(2), shortfall.Round(2).StringFixed(2)))
				logger.Warnw("commission_clawback_debt",
					"entry_id", entry.ID, "user_id", user.ID,
					"amount", reduce.StringFixed(2),
					"debt", shortfall.Round(2).StringFixed(2),
				)
			} else {
				entry.Remark = appendRemark(entry.Remark, fmt.Sprintf("部分退款扣回¥%s", reduce.StringFixed(2)))
			}
			if err := commissionRepo.Update(entry); err != nil {
				return decimal.Zero, decimal.Zero, err
			}
			continue
		}

		remaining := entry.Amount.Decimal.Sub(reduce)
		if remaining.IsPositive() {
			entry.Amount = models.NewMoneyFromDecimal(remaining)
			entry.Remark = appendRemark(entry.Remark, fmt.Sprintf("部分退款扣减¥%s", reduce.StringFixed(2)))
		} else {
			entry.Status = constants.CommissionStatusCancelled
			entry.CancelReason = fmt.Sprintf("订单部分退款 %s", refundNo)
		}
		if err := commissionRepo.Update(entry); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}
	return clawback.Round(2), debtAccrued.Round(2), nil
}

func appendRemark(remark, note string) string {
	if remark == "" {
		return note
	}
	return remark + "；" + note
}

// GetByID 查询退款申请，userID 非零时校验归属
func (s *RefundService) GetByID(refundID, userID uint) (*models.Refund, error) {
	refund, err := s.refundRepo.GetByID(refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, fmt.Errorf("%w: 退款申请 %d", ErrNotFound, refundID)
	}
	if userID != 0 && refund.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return refund, nil
}

// List 查询退款申请列表
func (s *RefundService) List(filter repository.RefundListFilter) ([]models.Refund, int64, error) {
	return s.refundRepo.List(filter)
}
