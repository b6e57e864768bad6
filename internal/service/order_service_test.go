package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:order_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.ProductSKU{},
		&models.Order{}, &models.CommissionLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	userRepo := repository.NewUserRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)

	userSvc := NewUserService(userRepo, commissionRepo, settingSvc, nil)
	commissionSvc := NewCommissionService(commissionRepo, orderRepo, userRepo, settingSvc, nil)
	svc := NewOrderService(orderRepo, productRepo, userRepo, commissionSvc, userSvc, settingSvc, nil, nil)
	return svc, db
}

func createOrderTestUser(t *testing.T, db *gorm.DB, phone string, roleLevel int, parentID *uint) models.User {
	t.Helper()

	now := time.Now()
	row := models.User{
		Phone:     phone,
		Status:    constants.UserStatusActive,
		RoleLevel: roleLevel,
		ParentID:  parentID,
	}
	if parentID != nil {
		row.ParentBoundAt = &now
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func createOrderTestProduct(t *testing.T, db *gorm.DB, stock int) models.Product {
	t.Helper()

	row := models.Product{
		Name:          fmt.Sprintf("测试商品-%d", time.Now().UnixNano()),
		RetailPrice:   mustMoney(t, "399.00"),
		MemberPrice:   mustMoneyPtr(t, "339.00"),
		LeaderPrice:   mustMoneyPtr(t, "299.00"),
		WholesaleCost: mustMoney(t, "180.00"),
		Stock:         stock,
		IsActive:      true,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return row
}

func createOrderTestPaidOrder(t *testing.T, db *gorm.DB, userID, productID uint, total, cost string) models.Order {
	t.Helper()

	now := time.Now()
	row := models.Order{
		OrderNo:         fmt.Sprintf("ORD-P%d", time.Now().UnixNano()),
		UserID:          userID,
		ProductID:       productID,
		Quantity:        1,
		UnitPrice:       mustMoney(t, total),
		TotalAmount:     mustMoney(t, total),
		LockedAgentCost: mustMoney(t, cost),
		Status:          constants.OrderStatusPaid,
		PaidAt:          &now,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return row
}

func TestCreateOrderSnapshotsPriceAndCost(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createOrderTestUser(t, db, "13700000001", constants.RoleMember, nil)
	product := createOrderTestProduct(t, db, 10)

	order, err := svc.Create(CreateOrderInput{UserID: buyer.ID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.UnitPrice.String() != "339.00" {
		t.Fatalf("member unit price want 339.00 got %s", order.UnitPrice.String())
	}
	if order.TotalAmount.String() != "678.00" {
		t.Fatalf("total want 678.00 got %s", order.TotalAmount.String())
	}
	if order.LockedAgentCost.String() != "360.00" {
		t.Fatalf("locked cost want 360.00 got %s", order.LockedAgentCost.String())
	}
	if order.BuyerRoleLevel != constants.RoleMember {
		t.Fatalf("buyer role snapshot want member got %d", order.BuyerRoleLevel)
	}
	if order.ExpiresAt == nil {
		t.Fatalf("expected expires_at set")
	}
	if order.FulfillmentType != constants.OrderFulfillmentCompany {
		t.Fatalf("fulfillment type want company got %s", order.FulfillmentType)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 8 {
		t.Fatalf("stock want 8 got %d", reloaded.Stock)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createOrderTestUser(t, db, "13700000002", constants.RoleMember, nil)
	product := createOrderTestProduct(t, db, 1)

	_, err := svc.Create(CreateOrderInput{UserID: buyer.ID, ProductID: product.ID, Quantity: 2})
	if !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected ErrStockInsufficient, got: %v", err)
	}
}

func TestCreateOrderWithSKUOverride(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createOrderTestUser(t, db, "13700000003", constants.RoleMember, nil)
	product := createOrderTestProduct(t, db, 10)
	sku := models.ProductSKU{
		ProductID:     product.ID,
		SKUCode:       "SKU-1000",
		MemberPrice:   mustMoneyPtr(t, "258.00"),
		WholesaleCost: mustMoneyPtr(t, "150.00"),
		Stock:         5,
		IsActive:      true,
	}
	if err := db.Create(&sku).Error; err != nil {
		t.Fatalf("create sku failed: %v", err)
	}

	order, err := svc.Create(CreateOrderInput{UserID: buyer.ID, ProductID: product.ID, SKUID: &sku.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.UnitPrice.String() != "258.00" {
		t.Fatalf("sku unit price want 258.00 got %s", order.UnitPrice.String())
	}
	if order.LockedAgentCost.String() != "150.00" {
		t.Fatalf("sku locked cost want 150.00 got %s", order.LockedAgentCost.String())
	}

	var reloaded models.ProductSKU
	if err := db.First(&reloaded, sku.ID).Error; err != nil {
		t.Fatalf("reload sku failed: %v", err)
	}
	if reloaded.Stock != 4 {
		t.Fatalf("sku stock want 4 got %d", reloaded.Stock)
	}
}

func TestPayOrderUpgradesGuestToMember(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createOrderTestUser(t, db, "13700000004", constants.RoleGuest, nil)
	product := createOrderTestProduct(t, db, 10)
	order, err := svc.Create(CreateOrderInput{UserID: buyer.ID, ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paid, err := svc.Pay(order.ID, buyer.ID)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid order, got %+v", paid)
	}

	var reloaded models.User
	if err := db.First(&reloaded, buyer.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.RoleLevel != constants.RoleMember {
		t.Fatalf("guest should upgrade to member after first payment, got %d", reloaded.RoleLevel)
	}
	if reloaded.FirstPurchaseAt == nil {
		t.Fatalf("expected first_purchase_at set")
	}

	if _, err := svc.Pay(order.ID, buyer.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid on double pay, got: %v", err)
	}
}

func TestShipCreatesFrozenCommissions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	grandparent := createOrderTestUser(t, db, "13700000005", constants.RoleAgent, nil)
	parent := createOrderTestUser(t, db, "13700000006", constants.RoleLeader, &grandparent.ID)
	buyer := createOrderTestUser(t, db, "13700000007", constants.RoleMember, &parent.ID)
	fulfiller := createOrderTestUser(t, db, "13700000008", constants.RoleAgent, nil)
	product := createOrderTestProduct(t, db, 10)

	// 利润池 399 - 249 = 150
	order := createOrderTestPaidOrder(t, db, buyer.ID, product.ID, "399.00", "249.00")

	shipped, err := svc.Ship(order.ID, &fulfiller.ID)
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.Status != constants.OrderStatusShipped || shipped.ShippedAt == nil {
		t.Fatalf("expected shipped order, got %+v", shipped)
	}
	if shipped.FulfillmentType != constants.OrderFulfillmentAgent {
		t.Fatalf("agent shipped order fulfillment type want agent got %s", shipped.FulfillmentType)
	}
	if shipped.SettlementAt == nil || shipped.RefundDeadline == nil {
		t.Fatalf("expected settlement_at and refund_deadline set")
	}
	if shipped.MiddleCommissionTotal.String() != "45.00" {
		t.Fatalf("middle commission total want 45.00 got %s", shipped.MiddleCommissionTotal.String())
	}

	var entries []models.CommissionLog
	if err := db.Where("order_id = ?", order.ID).Order("id asc").Find(&entries).Error; err != nil {
		t.Fatalf("load entries failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 commission entries, got %d", len(entries))
	}
	amounts := map[string]string{}
	for _, entry := range entries {
		if entry.Status != constants.CommissionStatusFrozen {
			t.Fatalf("entry %d should be frozen, got %s", entry.ID, entry.Status)
		}
		if entry.RefundDeadline == nil {
			t.Fatalf("entry %d missing refund deadline", entry.ID)
		}
		amounts[entry.CommissionType] = entry.Amount.String()
	}
	if amounts[constants.CommissionTypeSelf] != "60.00" ||
		amounts[constants.CommissionTypeDirect] != "30.00" ||
		amounts[constants.CommissionTypeIndirect] != "15.00" {
		t.Fatalf("unexpected commission amounts: %v", amounts)
	}
	if amounts[constants.CommissionTypeAgentFulfillment] != "45.00" {
		t.Fatalf("fulfiller profit want 45.00 got %s", amounts[constants.CommissionTypeAgentFulfillment])
	}

	// 重复发货被状态机拒绝
	if _, err := svc.Ship(order.ID, &fulfiller.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid on double ship, got: %v", err)
	}
}

func TestCompleteIncrementsBuyerCounters(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createOrderTestUser(t, db, "13700000009", constants.RoleMember, nil)
	product := createOrderTestProduct(t, db, 10)
	order := createOrderTestPaidOrder(t, db, buyer.ID, product.ID, "399.00", "249.00")
	if _, err := svc.Ship(order.ID, nil); err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	completed, err := svc.Complete(order.ID, buyer.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed order, got %+v", completed)
	}

	var reloaded models.User
	if err := db.First(&reloaded, buyer.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.OrderCount != 1 {
		t.Fatalf("order count want 1 got %d", reloaded.OrderCount)
	}
	if reloaded.TotalSales.String() != "399.00" {
		t.Fatalf("total sales want 399.00 got %s", reloaded.TotalSales.String())
	}
}

func TestCancelPendingOrderRestoresStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createOrderTestUser(t, db, "13700000010", constants.RoleMember, nil)
	product := createOrderTestProduct(t, db, 10)
	order, err := svc.Create(CreateOrderInput{UserID: buyer.ID, ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := svc.Cancel(order.ID, buyer.ID, "买家主动取消")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled order, got %+v", cancelled)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 10 {
		t.Fatalf("stock want 10 got %d", reloaded.Stock)
	}
}

func TestHandleTimeoutCancelIdempotent(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	buyer := createOrderTestUser(t, db, "13700000011", constants.RoleMember, nil)
	product := createOrderTestProduct(t, db, 10)

	// 已支付订单的超时任务直接作废，不报错也不改状态
	paid := createOrderTestPaidOrder(t, db, buyer.ID, product.ID, "399.00", "249.00")
	if err := svc.HandleTimeoutCancel(paid.ID); err != nil {
		t.Fatalf("timeout cancel on paid order should be no-op, got: %v", err)
	}
	var reloaded models.Order
	if err := db.First(&reloaded, paid.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("paid order must stay paid, got %s", reloaded.Status)
	}

	pending, err := svc.Create(CreateOrderInput{UserID: buyer.ID, ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := svc.HandleTimeoutCancel(pending.ID); err != nil {
		t.Fatalf("timeout cancel failed: %v", err)
	}
	var reloadedPending models.Order
	if err := db.First(&reloadedPending, pending.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedPending.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", reloadedPending.Status)
	}
}
