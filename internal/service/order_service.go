package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 定时兜底任务单轮处理上限
const orderSweepBatchSize = 200

// OrderService 订单生命周期服务
//
// 状态机：pending → paid → shipped → completed；pending 可取消，
// paid/shipped/completed 的回退只能走退款流程。所有状态迁移在行锁下执行。
type OrderService struct {
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	userRepo       repository.UserRepository
	commissionSvc  *CommissionService
	userService    *UserService
	settingService *SettingService
	queueClient    *queue.Client
	notifier       *NotificationService
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	commissionSvc *CommissionService,
	userService *UserService,
	settingService *SettingService,
	queueClient *queue.Client,
	notifier *NotificationService,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		userRepo:       userRepo,
		commissionSvc:  commissionSvc,
		userService:    userService,
		settingService: settingService,
		queueClient:    queueClient,
		notifier:       notifier,
	}
}

// CreateOrderInput 下单参数
type CreateOrderInput struct {
	UserID    uint  `json:"user_id"`
	ProductID uint  `json:"product_id"`
	SKUID     *uint `json:"sku_id"`
	Quantity  int   `json:"quantity"`
}

// Create 下单
//
// 成交单价按买家当前角色解析，供货成本在此刻快照为 locked_agent_cost，
// 后续佣金计算不再受改价影响。
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	if input.Quantity <= 0 {
		input.Quantity = 1
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: 用户 %d", ErrNotFound, input.UserID)
	}
	if user.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}

	setting, err := s.settingService.GetOrderSetting()
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)

		product, err := productRepo.GetByIDForUpdate(input.ProductID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return fmt.Errorf("%w: 商品 %d", ErrNotFound, input.ProductID)
		}

		var sku *models.ProductSKU
		if input.SKUID != nil {
			sku, err = productRepo.GetSKUByIDForUpdate(*input.SKUID)
			if err != nil {
				return err
			}
			if sku == nil || sku.ProductID != product.ID {
				return fmt.Errorf("%w: SKU %d", ErrNotFound, *input.SKUID)
			}
		}

		stock := product.Stock
		if sku != nil {
			stock = sku.Stock
		}
		if stock < input.Quantity {
			return fmt.Errorf("%w: 剩余 %d", ErrStockInsufficient, stock)
		}

		pricing := ResolveTierPricing(product, sku)
		unitPrice, err := ResolveUnitPrice(pricing, user.RoleLevel)
		if err != nil {
			return err
		}

		qty := decimal.NewFromInt(int64(input.Quantity))
		now := time.Now()
		expiresAt := now.Add(time.Duration(setting.AutoCancelMinutes) * time.Minute)

		order = &models.Order{
			OrderNo:         newBusinessNo(constants.OrderNoPrefix),
			UserID:          user.ID,
			ProductID:       product.ID,
			SKUID:           input.SKUID,
			Quantity:        input.Quantity,
			BuyerRoleLevel:  user.RoleLevel,
			UnitPrice:       unitPrice,
			TotalAmount:     models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(qty)),
			LockedAgentCost: models.NewMoneyFromDecimal(pricing.WholesaleCost.Decimal.Mul(qty)),
			FulfillmentType: constants.OrderFulfillmentCompany,
			Status:          constants.OrderStatusPending,
			ExpiresAt:       &expiresAt,
		}
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		return productRepo.AdjustStock(product.ID, input.SKUID, -input.Quantity)
	})
	if err != nil {
		return nil, err
	}

	delay := time.Duration(setting.AutoCancelMinutes) * time.Minute
	if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, delay); err != nil {
		logger.Warnw("order_timeout_task_enqueue_failed", "order_id", order.ID, "error", err)
	}

	logger.Infow("order_created", "order_id", order.ID, "order_no", order.OrderNo,
		"user_id", user.ID, "total_amount", order.TotalAmount.String())
	return order, nil
}

// Pay 支付订单（pending → paid）
func (s *OrderService) Pay(orderID, userID uint) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)

		locked, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 订单 %d", ErrNotFound, orderID)
		}
		if userID != 0 && locked.UserID != userID {
			return ErrPermissionDenied
		}
		if locked.Status != constants.OrderStatusPending {
			return fmt.Errorf("%w: %s", ErrOrderStatusInvalid, locked.Status)
		}

		now := time.Now()
		locked.Status = constants.OrderStatusPaid
		locked.PaidAt = &now
		if err := repo.Update(locked); err != nil {
			return err
		}

		// 首购：游客自动升级会员
		if err := s.userService.ApplyPurchaseUpgradeTx(tx, locked.UserID, now); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_paid", "order_id", order.ID, "order_no", order.OrderNo, "user_id", order.UserID)
	return order, nil
}

// Ship 发货（paid → shipped），同一事务内生成冻结佣金
//
// 重复发货请求会在状态校验处失败，佣金表的 (order_id, user_id, type)
// 唯一索引兜底保证不会重复入账。
func (s *OrderService) Ship(orderID uint, fulfillerID *uint) (*models.Order, error) {
	commissionSetting, err := s.settingService.GetCommissionSetting()
	if err != nil {
		return nil, err
	}
	refundSetting, err := s.settingService.GetRefundSetting()
	if err != nil {
		return nil, err
	}
	orderSetting, err := s.settingService.GetOrderSetting()
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)

		locked, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 订单 %d", ErrNotFound, orderID)
		}
		if locked.Status != constants.OrderStatusPaid {
			return fmt.Errorf("%w: %s", ErrOrderStatusInvalid, locked.Status)
		}

		buyer, err := s.userRepo.WithTx(tx).GetByID(locked.UserID)
		if err != nil {
			return err
		}
		if buyer == nil {
			return fmt.Errorf("%w: 买家 %d", ErrNotFound, locked.UserID)
		}
		parent, grandparent, err := s.userService.ResolveUpline(buyer)
		if err != nil {
			return err
		}

		result := CalculateCommission(CommissionInput{
			Order:       locked,
			Buyer:       buyer,
			Parent:      parent,
			Grandparent: grandparent,
			Setting:     commissionSetting,
		})

		entries := result.Entries
		// 剩余利润归履约代理
		if fulfillerID != nil && *fulfillerID != 0 && result.AgentProfit.Decimal.IsPositive() {
			entries = append(entries, CommissionEntry{
				UserID:         *fulfillerID,
				CommissionType: constants.CommissionTypeAgentFulfillment,
				Level:          0,
				BaseAmount:     locked.TotalAmount,
				Amount:         result.AgentProfit,
			})
		}

		now := time.Now()
		refundDeadline := now.Add(time.Duration(refundSetting.MaxRefundDays) * 24 * time.Hour)
		settlementAt := now.Add(time.Duration(commissionSetting.FreezeDays) * 24 * time.Hour)

		if err := s.commissionSvc.CreateFrozenEntriesTx(tx, locked, entries, refundDeadline); err != nil {
			return err
		}

		middle := decimal.Zero
		for _, entry := range entries {
			switch entry.CommissionType {
			case constants.CommissionTypeDirect, constants.CommissionTypeIndirect, constants.CommissionTypeGap:
				middle = middle.Add(entry.Amount.Decimal)
			}
		}

		locked.Status = constants.OrderStatusShipped
		locked.ShippedAt = &now
		locked.SettlementAt = &settlementAt
		locked.RefundDeadline = &refundDeadline
		locked.FulfillerID = fulfillerID
		if fulfillerID != nil && *fulfillerID != 0 {
			locked.FulfillmentType = constants.OrderFulfillmentAgent
		}
		locked.MiddleCommissionTotal = models.NewMoneyFromDecimal(middle)
		if err := repo.Update(locked); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	delay := time.Duration(orderSetting.AutoConfirmDays) * 24 * time.Hour
	if err := s.queueClient.EnqueueOrderAutoConfirm(queue.OrderAutoConfirmPayload{OrderID: order.ID}, delay); err != nil {
		logger.Warnw("order_auto_confirm_enqueue_failed", "order_id", order.ID, "error", err)
	}

	logger.Infow("order_shipped", "order_id", order.ID, "order_no", order.OrderNo,
		"middle_commission_total", order.MiddleCommissionTotal.String())
	return order, nil
}

// Complete 确认收货（shipped → completed）
func (s *OrderService) Complete(orderID, userID uint) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)

		locked, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 订单 %d", ErrNotFound, orderID)
		}
		if userID != 0 && locked.UserID != userID {
			return ErrPermissionDenied
		}
		if locked.Status != constants.OrderStatusShipped {
			return fmt.Errorf("%w: %s", ErrOrderStatusInvalid, locked.Status)
		}

		now := time.Now()
		locked.Status = constants.OrderStatusCompleted
		locked.CompletedAt = &now
		if err := repo.Update(locked); err != nil {
			return err
		}

		if err := s.userRepo.WithTx(tx).UpdateFields(locked.UserID, map[string]interface{}{
			"order_count": gorm.Expr("order_count + 1"),
			"total_sales": gorm.Expr("total_sales + ?", locked.TotalAmount.Decimal),
			"updated_at":  now,
		}); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 完成单数变化可能触发代理升级
	if err := s.userService.CheckRoleUpgrade(order.UserID); err != nil {
		logger.Warnw("order_complete_upgrade_check_failed", "user_id", order.UserID, "error", err)
	}

	logger.Infow("order_completed", "order_id", order.ID, "order_no", order.OrderNo)
	return order, nil
}

// Cancel 取消待支付订单并回补库存
func (s *OrderService) Cancel(orderID, userID uint, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)

		locked, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 订单 %d", ErrNotFound, orderID)
		}
		if userID != 0 && locked.UserID != userID {
			return ErrPermissionDenied
		}
		if locked.Status != constants.OrderStatusPending {
			return fmt.Errorf("%w: %s", ErrOrderStatusInvalid, locked.Status)
		}

		now := time.Now()
		locked.Status = constants.OrderStatusCancelled
		locked.CancelledAt = &now
		if err := repo.Update(locked); err != nil {
			return err
		}
		if err := s.productRepo.WithTx(tx).AdjustStock(locked.ProductID, locked.SKUID, locked.Quantity); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_cancelled", "order_id", order.ID, "order_no", order.OrderNo, "reason", reason)
	return order, nil
}

// HandleTimeoutCancel 队列任务：超时未支付自动取消（幂等）
func (s *OrderService) HandleTimeoutCancel(orderID uint) error {
	_, err := s.Cancel(orderID, 0, "支付超时自动取消")
	if err != nil && (errors.Is(err, ErrOrderStatusInvalid) || errors.Is(err, ErrNotFound)) {
		// 已支付或已取消，任务作废
		return nil
	}
	return err
}

// HandleAutoConfirm 队列任务：发货超期自动确认收货（幂等）
func (s *OrderService) HandleAutoConfirm(orderID uint) error {
	_, err := s.Complete(orderID, 0)
	if err != nil && (errors.Is(err, ErrOrderStatusInvalid) || errors.Is(err, ErrNotFound)) {
		return nil
	}
	return err
}

// SweepTimeoutOrders 定时兜底：扫描过期待支付订单并取消
func (s *OrderService) SweepTimeoutOrders(now time.Time) (int, error) {
	rows, err := s.orderRepo.ListTimeoutPending(now, orderSweepBatchSize)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for i := range rows {
		if err := s.HandleTimeoutCancel(rows[i].ID); err != nil {
			logger.Warnw("order_timeout_sweep_failed", "order_id", rows[i].ID, "error", err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// SweepAutoConfirmOrders 定时兜底：扫描发货超期订单并自动确认收货
func (s *OrderService) SweepAutoConfirmOrders(now time.Time) (int, error) {
	setting, err := s.settingService.GetOrderSetting()
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-time.Duration(setting.AutoConfirmDays) * 24 * time.Hour)
	rows, err := s.orderRepo.ListShippedBefore(cutoff, orderSweepBatchSize)
	if err != nil {
		return 0, err
	}
	confirmed := 0
	for i := range rows {
		if err := s.HandleAutoConfirm(rows[i].ID); err != nil {
			logger.Warnw("order_auto_confirm_sweep_failed", "order_id", rows[i].ID, "error", err)
			continue
		}
		confirmed++
	}
	return confirmed, nil
}

// GetByID 查询订单，userID 非零时校验归属
func (s *OrderService) GetByID(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: 订单 %d", ErrNotFound, orderID)
	}
	if userID != 0 && order.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return order, nil
}

// List 查询订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}
