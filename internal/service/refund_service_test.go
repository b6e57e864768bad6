package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRefundServiceTest(t *testing.T) (*RefundService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:refund_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.ProductSKU{},
		&models.Order{}, &models.CommissionLog{}, &models.Refund{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	svc := NewRefundService(
		repository.NewRefundRepository(db),
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		repository.NewProductRepository(db),
		repository.NewCommissionRepository(db),
		settingSvc,
		nil,
	)
	return svc, db
}

func createRefundTestUser(t *testing.T, db *gorm.DB, phone, balance string) models.User {
	t.Helper()

	row := models.User{
		Phone:     phone,
		Status:    constants.UserStatusActive,
		RoleLevel: constants.RoleMember,
		Balance:   mustMoney(t, balance),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func createRefundTestOrder(t *testing.T, db *gorm.DB, userID, productID uint, status string, completedAt *time.Time) models.Order {
	t.Helper()

	row := models.Order{
		OrderNo:         fmt.Sprintf("ORD-R%d", time.Now().UnixNano()),
		UserID:          userID,
		ProductID:       productID,
		Quantity:        2,
		TotalAmount:     mustMoney(t, "399.00"),
		LockedAgentCost: mustMoney(t, "249.00"),
		Status:          status,
		CompletedAt:     completedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return row
}

func createRefundTestEntry(t *testing.T, db *gorm.DB, orderID, userID uint, ctype, status, amount string) models.CommissionLog {
	t.Helper()

	row := models.CommissionLog{
		OrderID:        orderID,
		UserID:         userID,
		SourceUserID:   userID,
		CommissionType: ctype,
		BaseAmount:     mustMoney(t, amount),
		Amount:         mustMoney(t, amount),
		Status:         status,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create commission entry failed: %v", err)
	}
	return row
}

func TestRequestRefundValidations(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000001", "0.00")
	other := createRefundTestUser(t, db, "13600000002", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusShipped, nil)

	if _, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: other.ID, Amount: mustMoney(t, "100.00"),
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got: %v", err)
	}

	if _, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "0.00"),
	}); !errors.Is(err, ErrRefundAmountInvalid) {
		t.Fatalf("expected ErrRefundAmountInvalid, got: %v", err)
	}

	_, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "500.00"),
	})
	if !errors.Is(err, ErrRefundAmountExceeded) {
		t.Fatalf("expected ErrRefundAmountExceeded, got: %v", err)
	}
	if !strings.Contains(err.Error(), "超出可退金额") {
		t.Fatalf("error should mention refundable amount, got: %v", err)
	}

	refund, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "100.00"), Reason: "质量问题",
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if refund.Status != constants.RefundStatusPending {
		t.Fatalf("expected pending refund, got %s", refund.Status)
	}
	if !strings.HasPrefix(refund.RefundNo, constants.RefundNoPrefix) {
		t.Fatalf("refund no should carry prefix, got %s", refund.RefundNo)
	}

	// 已有处理中的申请时不允许再次提交
	if _, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "50.00"),
	}); !errors.Is(err, ErrRefundAlreadyActive) {
		t.Fatalf("expected ErrRefundAlreadyActive, got: %v", err)
	}
}

func TestRequestRefundWindowExpired(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000003", "0.00")
	completedAt := time.Now().Add(-16 * 24 * time.Hour)
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusCompleted, &completedAt)

	_, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "100.00"),
	})
	if !errors.Is(err, ErrRefundWindowExpired) {
		t.Fatalf("expected ErrRefundWindowExpired, got: %v", err)
	}
}

func TestApproveRefundExecutesClawback(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000004", "0.00")
	// 已结算受益人余额只有 50，追回 80 后缺口 30 转欠款
	beneficiary := createRefundTestUser(t, db, "13600000005", "50.00")
	upline := createRefundTestUser(t, db, "13600000006", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusShipped, nil)

	settled := createRefundTestEntry(t, db, order.ID, beneficiary.ID,
		constants.CommissionTypeDirect, constants.CommissionStatusSettled, "80.00")
	frozen := createRefundTestEntry(t, db, order.ID, upline.ID,
		constants.CommissionTypeIndirect, constants.CommissionStatusFrozen, "15.00")

	refund, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "399.00"), Reason: "不想要了",
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}

	completed, err := svc.Approve(refund.ID, 1)
	if err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}
	if completed.Status != constants.RefundStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed refund, got %+v", completed)
	}
	if completed.ClawbackAmount.String() != "80.00" {
		t.Fatalf("clawback want 80.00 got %s", completed.ClawbackAmount.String())
	}
	if completed.DebtAccrued.String() != "30.00" {
		t.Fatalf("debt accrued want 30.00 got %s", completed.DebtAccrued.String())
	}

	var reloadedUser models.User
	if err := db.First(&reloadedUser, beneficiary.ID).Error; err != nil {
		t.Fatalf("reload beneficiary failed: %v", err)
	}
	if reloadedUser.Balance.String() != "0.00" {
		t.Fatalf("beneficiary balance want 0.00 got %s", reloadedUser.Balance.String())
	}
	if reloadedUser.DebtAmount.String() != "30.00" {
		t.Fatalf("beneficiary debt want 30.00 got %s", reloadedUser.DebtAmount.String())
	}

	for _, entryID := range []uint{settled.ID, frozen.ID} {
		var entry models.CommissionLog
		if err := db.First(&entry, entryID).Error; err != nil {
			t.Fatalf("reload entry failed: %v", err)
		}
		if entry.Status != constants.CommissionStatusCancelled {
			t.Fatalf("entry %d should be cancelled, got %s", entryID, entry.Status)
		}
		if !strings.Contains(entry.CancelReason, refund.RefundNo) {
			t.Fatalf("cancel reason should reference refund no, got %s", entry.CancelReason)
		}
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusRefunded {
		t.Fatalf("full refund should mark order refunded, got %s", reloadedOrder.Status)
	}
	if reloadedOrder.RefundedAmount.String() != "399.00" {
		t.Fatalf("refunded amount want 399.00 got %s", reloadedOrder.RefundedAmount.String())
	}
	if !reloadedOrder.MiddleCommissionTotal.Decimal.IsZero() {
		t.Fatalf("middle commission total should reset to 0, got %s", reloadedOrder.MiddleCommissionTotal.String())
	}
	if !reloadedOrder.CommissionSettled {
		t.Fatalf("expected commission_settled true after full revoke")
	}
}

func TestPartialRefundKeepsOrderStatus(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000007", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusShipped, nil)

	refund, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "100.00"),
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if _, err := svc.Approve(refund.ID, 1); err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusShipped {
		t.Fatalf("partial refund should keep order status, got %s", reloaded.Status)
	}
	if reloaded.RefundedAmount.String() != "100.00" {
		t.Fatalf("refunded amount want 100.00 got %s", reloaded.RefundedAmount.String())
	}
}

func TestRequestRefundOnPaidOrder(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000012", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusPaid, nil)

	// 已支付未发货的订单可以直接申请退款
	refund, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "399.00"), Reason: "拍错了",
	})
	if err != nil {
		t.Fatalf("request refund on paid order failed: %v", err)
	}

	completed, err := svc.Approve(refund.ID, 1)
	if err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}
	if completed.Status != constants.RefundStatusCompleted {
		t.Fatalf("expected completed refund, got %s", completed.Status)
	}
	// 未发货即无佣金记录，无需追回
	if completed.ClawbackAmount.String() != "0.00" {
		t.Fatalf("clawback want 0.00 got %s", completed.ClawbackAmount.String())
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusRefunded {
		t.Fatalf("full refund should mark order refunded, got %s", reloaded.Status)
	}
}

func TestRequestRefundRestockOrderRejected(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000013", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusShipped, nil)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("fulfillment_type", constants.OrderFulfillmentRestock).Error; err != nil {
		t.Fatalf("set fulfillment type failed: %v", err)
	}

	_, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "100.00"),
	})
	if !errors.Is(err, ErrRefundNotSupported) {
		t.Fatalf("expected ErrRefundNotSupported, got: %v", err)
	}
	if !strings.Contains(err.Error(), "采购订单") {
		t.Fatalf("error should direct to offline process, got: %v", err)
	}
}

func TestPartialRefundProRatesCommissions(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000014", "0.00")
	// 已结算受益人余额 5，按 10% 比例扣回 8 时缺口 3 转欠款
	beneficiary := createRefundTestUser(t, db, "13600000015", "5.00")
	upline := createRefundTestUser(t, db, "13600000016", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusShipped, nil)

	settled := createRefundTestEntry(t, db, order.ID, beneficiary.ID,
		constants.CommissionTypeDirect, constants.CommissionStatusSettled, "80.00")
	frozen := createRefundTestEntry(t, db, order.ID, upline.ID,
		constants.CommissionTypeIndirect, constants.CommissionStatusFrozen, "15.00")

	// 退 399 的 10%
	refund, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "39.90"), Reason: "部分损坏",
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	completed, err := svc.Approve(refund.ID, 1)
	if err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}
	if completed.ClawbackAmount.String() != "8.00" {
		t.Fatalf("clawback want 8.00 got %s", completed.ClawbackAmount.String())
	}
	if completed.DebtAccrued.String() != "3.00" {
		t.Fatalf("debt accrued want 3.00 got %s", completed.DebtAccrued.String())
	}

	var reloadedUser models.User
	if err := db.First(&reloadedUser, beneficiary.ID).Error; err != nil {
		t.Fatalf("reload beneficiary failed: %v", err)
	}
	if reloadedUser.Balance.String() != "0.00" {
		t.Fatalf("beneficiary balance want 0.00 got %s", reloadedUser.Balance.String())
	}
	if reloadedUser.DebtAmount.String() != "3.00" {
		t.Fatalf("beneficiary debt want 3.00 got %s", reloadedUser.DebtAmount.String())
	}

	// 已结算记录保持状态与原始金额，仅记录扣回
	var reloadedSettled models.CommissionLog
	if err := db.First(&reloadedSettled, settled.ID).Error; err != nil {
		t.Fatalf("reload settled entry failed: %v", err)
	}
	if reloadedSettled.Status != constants.CommissionStatusSettled {
		t.Fatalf("settled entry must keep status on partial refund, got %s", reloadedSettled.Status)
	}
	if reloadedSettled.Amount.String() != "80.00" {
		t.Fatalf("settled amount want 80.00 got %s", reloadedSettled.Amount.String())
	}
	if !strings.Contains(reloadedSettled.Remark, "部分退款扣回") {
		t.Fatalf("settled entry should record clawback, got %q", reloadedSettled.Remark)
	}

	// 未结算记录按比例扣减金额
	var reloadedFrozen models.CommissionLog
	if err := db.First(&reloadedFrozen, frozen.ID).Error; err != nil {
		t.Fatalf("reload frozen entry failed: %v", err)
	}
	if reloadedFrozen.Status != constants.CommissionStatusFrozen {
		t.Fatalf("frozen entry must keep status on partial refund, got %s", reloadedFrozen.Status)
	}
	if reloadedFrozen.Amount.String() != "13.50" {
		t.Fatalf("frozen amount want 13.50 got %s", reloadedFrozen.Amount.String())
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusShipped {
		t.Fatalf("partial refund should keep order status, got %s", reloadedOrder.Status)
	}
	if reloadedOrder.MiddleCommissionTotal.String() != "93.50" {
		t.Fatalf("middle commission total want 93.50 got %s", reloadedOrder.MiddleCommissionTotal.String())
	}
	if reloadedOrder.CommissionSettled {
		t.Fatalf("partial refund must not mark order commission_settled")
	}
}

func TestRejectRefund(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000008", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusShipped, nil)

	refund, err := svc.Request(RequestRefundInput{
		OrderID: order.ID, UserID: buyer.ID, Amount: mustMoney(t, "100.00"),
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}

	rejected, err := svc.Reject(refund.ID, 1, "超出售后范围")
	if err != nil {
		t.Fatalf("reject refund failed: %v", err)
	}
	if rejected.Status != constants.RefundStatusRejected {
		t.Fatalf("expected rejected refund, got %s", rejected.Status)
	}
	if rejected.RejectReason != "超出售后范围" {
		t.Fatalf("unexpected reject reason: %s", rejected.RejectReason)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.RefundedAmount.String() != "0.00" {
		t.Fatalf("rejected refund must not touch order, got %s", reloaded.RefundedAmount.String())
	}
}

func TestReturnRefundRestoresStock(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000009", "0.00")
	product := models.Product{
		Name:          "退货测试商品",
		RetailPrice:   mustMoney(t, "399.00"),
		WholesaleCost: mustMoney(t, "180.00"),
		Stock:         8,
		IsActive:      true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	order := createRefundTestOrder(t, db, buyer.ID, product.ID, constants.OrderStatusShipped, nil)

	refund, err := svc.Request(RequestRefundInput{
		OrderID:        order.ID,
		UserID:         buyer.ID,
		RefundType:     constants.RefundTypeReturnRefund,
		Amount:         mustMoney(t, "199.50"),
		RefundQuantity: 1,
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if _, err := svc.Approve(refund.ID, 1); err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}

	var reloadedProduct models.Product
	if err := db.First(&reloadedProduct, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloadedProduct.Stock != 9 {
		t.Fatalf("stock want 9 got %d", reloadedProduct.Stock)
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.RefundedQuantity != 1 {
		t.Fatalf("refunded quantity want 1 got %d", reloadedOrder.RefundedQuantity)
	}
}

func TestReturnRefundQuantityExceeded(t *testing.T) {
	svc, db := setupRefundServiceTest(t)

	buyer := createRefundTestUser(t, db, "13600000010", "0.00")
	order := createRefundTestOrder(t, db, buyer.ID, 1, constants.OrderStatusShipped, nil)

	_, err := svc.Request(RequestRefundInput{
		OrderID:        order.ID,
		UserID:         buyer.ID,
		RefundType:     constants.RefundTypeReturnRefund,
		Amount:         mustMoney(t, "100.00"),
		RefundQuantity: 3,
	})
	if !errors.Is(err, ErrRefundQuantityExceeded) {
		t.Fatalf("expected ErrRefundQuantityExceeded, got: %v", err)
	}
}
