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

func setupWalletServiceTest(t *testing.T) (*WalletService, *SettingService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:wallet_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Withdrawal{}, &models.CommissionLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	svc := NewWalletService(
		repository.NewUserRepository(db),
		repository.NewWithdrawalRepository(db),
		repository.NewCommissionRepository(db),
		settingSvc,
		nil,
	)
	return svc, settingSvc, db
}

func createWalletTestUser(t *testing.T, db *gorm.DB, phone, balance, debt string) models.User {
	t.Helper()

	row := models.User{
		Phone:      phone,
		Status:     constants.UserStatusActive,
		RoleLevel:  constants.RoleLeader,
		Balance:    mustMoney(t, balance),
		DebtAmount: mustMoney(t, debt),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func TestRequestWithdrawalAmountBounds(t *testing.T) {
	svc, _, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13500000001", "100000.00", "0.00")

	// 默认限额 10–50000
	if _, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "5.00"), Method: constants.WithdrawalMethodAlipay,
	}); !errors.Is(err, ErrWithdrawalAmountInvalid) {
		t.Fatalf("expected ErrWithdrawalAmountInvalid for low amount, got: %v", err)
	}
	if _, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "60000.00"), Method: constants.WithdrawalMethodAlipay,
	}); !errors.Is(err, ErrWithdrawalAmountInvalid) {
		t.Fatalf("expected ErrWithdrawalAmountInvalid for high amount, got: %v", err)
	}
}

func TestRequestWithdrawalBlockedByDebt(t *testing.T) {
	svc, _, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13500000002", "500.00", "30.00")

	_, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "100.00"), Method: constants.WithdrawalMethodAlipay,
	})
	if !errors.Is(err, ErrWalletDebtOutstanding) {
		t.Fatalf("expected ErrWalletDebtOutstanding, got: %v", err)
	}
}

func TestRequestWithdrawalInsufficientBalance(t *testing.T) {
	svc, _, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13500000003", "50.00", "0.00")

	_, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "100.00"), Method: constants.WithdrawalMethodAlipay,
	})
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("expected ErrWalletInsufficientBalance, got: %v", err)
	}
}

func TestRequestWithdrawalFreezesBalance(t *testing.T) {
	svc, settingSvc, db := setupWalletServiceTest(t)
	if _, err := settingSvc.UpdateWithdrawalSetting(WithdrawalSetting{
		MinAmount:       10,
		MaxSingleAmount: 50000,
		MaxDailyCount:   3,
		FeeRate:         0.01,
	}); err != nil {
		t.Fatalf("update withdrawal setting failed: %v", err)
	}
	user := createWalletTestUser(t, db, "13500000004", "200.00", "0.00")

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID,
		Amount: mustMoney(t, "150.00"),
		Method: constants.WithdrawalMethodAlipay,
		AccountInfo: models.JSON{
			"account_name": "测试用户",
			"account_no":   "pay@example.com",
		},
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}
	if withdrawal.Status != constants.WithdrawalStatusPending {
		t.Fatalf("expected pending withdrawal, got %s", withdrawal.Status)
	}
	if withdrawal.FeeAmount.String() != "1.50" {
		t.Fatalf("fee want 1.50 got %s", withdrawal.FeeAmount.String())
	}
	if withdrawal.ActualAmount.String() != "148.50" {
		t.Fatalf("actual amount want 148.50 got %s", withdrawal.ActualAmount.String())
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Balance.String() != "50.00" {
		t.Fatalf("balance should be frozen at request time, want 50.00 got %s", reloaded.Balance.String())
	}
}

func TestRequestWithdrawalDailyLimit(t *testing.T) {
	svc, settingSvc, db := setupWalletServiceTest(t)
	if _, err := settingSvc.UpdateWithdrawalSetting(WithdrawalSetting{
		MinAmount:       10,
		MaxSingleAmount: 50000,
		MaxDailyCount:   1,
	}); err != nil {
		t.Fatalf("update withdrawal setting failed: %v", err)
	}
	user := createWalletTestUser(t, db, "13500000005", "1000.00", "0.00")

	if _, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "100.00"), Method: constants.WithdrawalMethodAlipay,
	}); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	_, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "100.00"), Method: constants.WithdrawalMethodAlipay,
	})
	if !errors.Is(err, ErrWithdrawalDailyLimit) {
		t.Fatalf("expected ErrWithdrawalDailyLimit, got: %v", err)
	}
}

func TestReviewWithdrawalRejectRefundsBalance(t *testing.T) {
	svc, _, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13500000006", "300.00", "0.00")

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "200.00"), Method: constants.WithdrawalMethodBank,
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	rejected, err := svc.ReviewWithdrawal(withdrawal.ID, 1, false, "账户信息不符")
	if err != nil {
		t.Fatalf("reject withdrawal failed: %v", err)
	}
	if rejected.Status != constants.WithdrawalStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectReason != "账户信息不符" {
		t.Fatalf("unexpected reject reason: %s", rejected.RejectReason)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Balance.String() != "300.00" {
		t.Fatalf("balance should be refunded on reject, want 300.00 got %s", reloaded.Balance.String())
	}
}

func TestWithdrawalPayoutFlow(t *testing.T) {
	svc, _, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13500000007", "300.00", "0.00")

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "200.00"), Method: constants.WithdrawalMethodWechat,
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}

	// 未审核不允许直接打款
	if _, err := svc.MarkWithdrawalProcessing(withdrawal.ID); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("expected ErrWithdrawalStatusInvalid before review, got: %v", err)
	}

	if _, err := svc.ReviewWithdrawal(withdrawal.ID, 1, true, ""); err != nil {
		t.Fatalf("approve withdrawal failed: %v", err)
	}
	if _, err := svc.MarkWithdrawalProcessing(withdrawal.ID); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}
	completed, err := svc.CompleteWithdrawal(withdrawal.ID)
	if err != nil {
		t.Fatalf("complete withdrawal failed: %v", err)
	}
	if completed.Status != constants.WithdrawalStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed withdrawal, got %+v", completed)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Balance.String() != "100.00" {
		t.Fatalf("completed payout must not refund balance, want 100.00 got %s", reloaded.Balance.String())
	}
}

func TestFailWithdrawalRefundsBalance(t *testing.T) {
	svc, _, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13500000008", "300.00", "0.00")

	withdrawal, err := svc.RequestWithdrawal(RequestWithdrawalInput{
		UserID: user.ID, Amount: mustMoney(t, "200.00"), Method: constants.WithdrawalMethodBank,
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}
	if _, err := svc.ReviewWithdrawal(withdrawal.ID, 1, true, ""); err != nil {
		t.Fatalf("approve withdrawal failed: %v", err)
	}
	if _, err := svc.MarkWithdrawalProcessing(withdrawal.ID); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}

	failed, err := svc.FailWithdrawal(withdrawal.ID, "银行卡号无效")
	if err != nil {
		t.Fatalf("fail withdrawal failed: %v", err)
	}
	if failed.Status != constants.WithdrawalStatusFailed {
		t.Fatalf("expected failed withdrawal, got %s", failed.Status)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Balance.String() != "300.00" {
		t.Fatalf("balance should be refunded on payout failure, want 300.00 got %s", reloaded.Balance.String())
	}
}

func TestGetWalletOverview(t *testing.T) {
	svc, _, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13500000009", "120.00", "10.00")

	entries := []models.CommissionLog{
		{OrderID: 1, UserID: user.ID, SourceUserID: user.ID, CommissionType: constants.CommissionTypeSelf,
			Amount: mustMoney(t, "60.00"), Status: constants.CommissionStatusFrozen},
		{OrderID: 2, UserID: user.ID, SourceUserID: user.ID, CommissionType: constants.CommissionTypeDirect,
			Amount: mustMoney(t, "30.00"), Status: constants.CommissionStatusPendingApproval},
		{OrderID: 3, UserID: user.ID, SourceUserID: user.ID, CommissionType: constants.CommissionTypeDirect,
			Amount: mustMoney(t, "20.00"), Status: constants.CommissionStatusApproved},
	}
	if err := db.Create(&entries).Error; err != nil {
		t.Fatalf("create commission entries failed: %v", err)
	}

	overview, err := svc.GetOverview(user.ID)
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if overview.Balance.String() != "120.00" || overview.DebtAmount.String() != "10.00" {
		t.Fatalf("unexpected balance/debt: %+v", overview)
	}
	if overview.FrozenCommission.String() != "60.00" {
		t.Fatalf("frozen commission want 60.00 got %s", overview.FrozenCommission.String())
	}
	if overview.PendingCommission.String() != "50.00" {
		t.Fatalf("pending commission want 50.00 got %s", overview.PendingCommission.String())
	}
}

func TestLocalDayStart(t *testing.T) {
	zone := time.FixedZone("UTC+8", 8*3600)
	now := time.Date(2026, 8, 28, 1, 30, 0, 0, zone)

	start := localDayStart(now)
	if start.Year() != 2026 || start.Month() != 8 || start.Day() != 28 {
		t.Fatalf("unexpected day start date: %v", start)
	}
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Fatalf("day start should be local midnight, got %v", start)
	}
	if start.Location() != zone {
		t.Fatalf("day start should keep local zone, got %v", start.Location())
	}

	// 本地昨晚的申请不计入今日次数
	lastNight := time.Date(2026, 8, 27, 23, 30, 0, 0, zone)
	if !lastNight.Before(start) {
		t.Fatalf("previous local day must fall before day start")
	}
	// UTC 截断得到的是前一日 08:00 本地时间，不能用作当日起点
	utcTruncated := now.UTC().Truncate(24 * time.Hour)
	if !utcTruncated.Before(start) {
		t.Fatalf("utc truncation %v should precede local midnight %v", utcTruncated, start)
	}
}
