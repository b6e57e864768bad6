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

// WalletService 钱包与提现服务
//
// 提现在申请时即冻结余额（原子扣减），驳回或打款失败时原路退回。
// 存在欠款的账户禁止提现，欠款只能由佣金结算抵扣。
type WalletService struct {
	userRepo       repository.UserRepository
	withdrawalRepo repository.WithdrawalRepository
	commissionRepo repository.CommissionRepository
	settingService *SettingService
	notifier       *NotificationService
}

// NewWalletService 创建钱包服务
func NewWalletService(
	userRepo repository.UserRepository,
	withdrawalRepo repository.WithdrawalRepository,
	commissionRepo repository.CommissionRepository,
	settingService *SettingService,
	notifier *NotificationService,
) *WalletService {
	return &WalletService{
		userRepo:       userRepo,
		withdrawalRepo: withdrawalRepo,
		commissionRepo: commissionRepo,
		settingService: settingService,
		notifier:       notifier,
	}
}

// localDayStart 返回本地时区的当日零点，单日提现次数按自然日统计
func localDayStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// WalletOverview 钱包概览
type WalletOverview struct {
	Balance           models.Money `json:"balance"`
	DebtAmount        models.Money `json:"debt_amount"`
	TotalCommission   models.Money `json:"total_commission"`
	FrozenCommission  models.Money `json:"frozen_commission"`
	PendingCommission models.Money `json:"pending_commission"`
	WithdrawingAmount models.Money `json:"withdrawing_amount"`
	WithdrawnAmount   models.Money `json:"withdrawn_amount"`
}

// GetOverview 查询钱包概览
func (s *WalletService) GetOverview(userID uint) (*WalletOverview, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: 用户 %d", ErrNotFound, userID)
	}

	frozen, err := s.commissionRepo.SumByUserAndStatuses(userID, []string{constants.CommissionStatusFrozen})
	if err != nil {
		return nil, err
	}
	pending, err := s.commissionRepo.SumByUserAndStatuses(userID, []string{
		constants.CommissionStatusPendingApproval,
		constants.CommissionStatusApproved,
	})
	if err != nil {
		return nil, err
	}
	withdrawing, err := s.withdrawalRepo.SumByUserAndStatuses(userID, []string{
		constants.WithdrawalStatusPending,
		constants.WithdrawalStatusApproved,
		constants.WithdrawalStatusProcessing,
	})
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.withdrawalRepo.SumByUserAndStatuses(userID, []string{constants.WithdrawalStatusCompleted})
	if err != nil {
		return nil, err
	}

	return &WalletOverview{
		Balance:           user.Balance,
		DebtAmount:        user.DebtAmount,
		TotalCommission:   user.TotalCommission,
		FrozenCommission:  models.NewMoneyFromDecimal(frozen),
		PendingCommission: models.NewMoneyFromDecimal(pending),
		WithdrawingAmount: models.NewMoneyFromDecimal(withdrawing),
		WithdrawnAmount:   models.NewMoneyFromDecimal(withdrawn),
	}, nil
}

// RequestWithdrawalInput 提现申请参数
type RequestWithdrawalInput struct {
	UserID      uint         `json:"user_id"`
	Amount      models.Money `json:"amount"`
	Method      string       `json:"method"`
	AccountInfo models.JSON  `json:"account_info"`
}

// RequestWithdrawal 提交提现申请
func (s *WalletService) RequestWithdrawal(input RequestWithdrawalInput) (*models.Withdrawal, error) {
	setting, err := s.settingService.GetWithdrawalSetting()
	if err != nil {
		return nil, err
	}

	amount := input.Amount.Decimal.Round(2)
	if amount.LessThan(decimal.NewFromFloat(setting.MinAmount)) || amount.GreaterThan(decimal.NewFromFloat(setting.MaxSingleAmount)) {
		return nil, fmt.Errorf("%w: ¥%s–¥%s", ErrWithdrawalAmountInvalid,
			decimal.NewFromFloat(setting.MinAmount).StringFixed(2),
			decimal.NewFromFloat(setting.MaxSingleAmount).StringFixed(2))
	}

	var withdrawal *models.Withdrawal
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		withdrawalRepo := s.withdrawalRepo.WithTx(tx)

		user, err := userRepo.GetByIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: 用户 %d", ErrNotFound, input.UserID)
		}
		if user.Status != constants.UserStatusActive {
			return ErrUserDisabled
		}
		if user.DebtAmount.Decimal.IsPositive() {
			return fmt.Errorf("%w: 欠款 ¥%s", ErrWalletDebtOutstanding, user.DebtAmount.String())
		}

		dayStart := localDayStart(time.Now())
		count, err := withdrawalRepo.CountByUserSince(input.UserID, dayStart)
		if err != nil {
			return err
		}
		if count >= int64(setting.MaxDailyCount) {
			return fmt.Errorf("%w: 每日 %d 次", ErrWithdrawalDailyLimit, setting.MaxDailyCount)
		}

		if user.Balance.Decimal.LessThan(amount) {
			return fmt.Errorf("%w: 可用 ¥%s", ErrWalletInsufficientBalance, user.Balance.String())
		}

		fee := amount.Mul(decimal.NewFromFloat(setting.FeeRate)).Round(2)
		actual := amount.Sub(fee)

		user.Balance = models.NewMoneyFromDecimal(user.Balance.Decimal.Sub(amount))
		if err := userRepo.Update(user); err != nil {
			return err
		}

		withdrawal = &models.Withdrawal{
			WithdrawalNo:    newBusinessNo(constants.WithdrawalNoPrefix),
			UserID:          input.UserID,
			Amount:          models.NewMoneyFromDecimal(amount),
			FeeAmount:       models.NewMoneyFromDecimal(fee),
			ActualAmount:    models.NewMoneyFromDecimal(actual),
			Method:          input.Method,
			AccountInfoJSON: input.AccountInfo,
			Status:          constants.WithdrawalStatusPending,
		}
		return withdrawalRepo.Create(withdrawal)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("withdrawal_requested", "withdrawal_id", withdrawal.ID,
		"withdrawal_no", withdrawal.WithdrawalNo, "user_id", withdrawal.UserID,
		"amount", withdrawal.Amount.String())
	return withdrawal, nil
}

// ReviewWithdrawal 审核提现申请
//
// approve=true：pending → approved；approve=false：pending → rejected 并退回余额。
func (s *WalletService) ReviewWithdrawal(withdrawalID, reviewerID uint, approve bool, reason string) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal
	err := s.withdrawalRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawalRepo.WithTx(tx)
		locked, err := repo.GetByIDForUpdate(withdrawalID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 提现申请 %d", ErrNotFound, withdrawalID)
		}
		if locked.Status != constants.WithdrawalStatusPending {
			return fmt.Errorf("%w: %s", ErrWithdrawalStatusInvalid, locked.Status)
		}

		now := time.Now()
		locked.ReviewedBy = &reviewerID
		locked.ReviewedAt = &now
		if approve {
			locked.Status = constants.WithdrawalStatusApproved
		} else {
			locked.Status = constants.WithdrawalStatusRejected
			locked.RejectReason = reason
			if err := s.refundBalanceTx(tx, locked); err != nil {
				return err
			}
		}
		if err := repo.Update(locked); err != nil {
			return err
		}
		withdrawal = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	title := "提现审核通过"
	content := fmt.Sprintf("提现单 %s 已审核通过，等待打款。", withdrawal.WithdrawalNo)
	if !approve {
		title = "提现申请被驳回"
		content = fmt.Sprintf("提现单 %s 被驳回，金额已退回余额：%s", withdrawal.WithdrawalNo, reason)
	}
	s.notifier.SendAsync(withdrawal.UserID, constants.NotificationTypeWithdrawalReviewed,
		title, content, fmt.Sprintf("withdrawal:%d:%s", withdrawal.ID, withdrawal.Status))
	return withdrawal, nil
}

// MarkWithdrawalProcessing 开始打款（approved → processing）
func (s *WalletService) MarkWithdrawalProcessing(withdrawalID uint) (*models.Withdrawal, error) {
	return s.transitionWithdrawal(withdrawalID, constants.WithdrawalStatusApproved, constants.WithdrawalStatusProcessing, "")
}

// CompleteWithdrawal 打款成功（processing → completed）
func (s *WalletService) CompleteWithdrawal(withdrawalID uint) (*models.Withdrawal, error) {
	withdrawal, err := s.transitionWithdrawal(withdrawalID, constants.WithdrawalStatusProcessing, constants.WithdrawalStatusCompleted, "")
	if err != nil {
		return nil, err
	}
	s.notifier.SendAsync(withdrawal.UserID, constants.NotificationTypeWithdrawalReviewed,
		"提现到账", fmt.Sprintf("提现单 %s 的 ¥%s 已打款。", withdrawal.WithdrawalNo, withdrawal.ActualAmount.String()),
		fmt.Sprintf("withdrawal:%d:completed", withdrawal.ID))
	return withdrawal, nil
}

// FailWithdrawal 打款失败（processing → failed），退回余额
func (s *WalletService) FailWithdrawal(withdrawalID uint, reason string) (*models.Withdrawal, error) {
	withdrawal, err := s.transitionWithdrawal(withdrawalID, constants.WithdrawalStatusProcessing, constants.WithdrawalStatusFailed, reason)
	if err != nil {
		return nil, err
	}
	s.notifier.SendAsync(withdrawal.UserID, constants.NotificationTypeWithdrawalReviewed,
		"提现失败", fmt.Sprintf("提现单 %s 打款失败，金额已退回余额：%s", withdrawal.WithdrawalNo, reason),
		fmt.Sprintf("withdrawal:%d:failed", withdrawal.ID))
	return withdrawal, nil
}

func (s *WalletService) transitionWithdrawal(withdrawalID uint, from, to, reason string) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal
	err := s.withdrawalRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawalRepo.WithTx(tx)
		locked, err := repo.GetByIDForUpdate(withdrawalID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: 提现申请 %d", ErrNotFound, withdrawalID)
		}
		if locked.Status != from {
			return fmt.Errorf("%w: %s", ErrWithdrawalStatusInvalid, locked.Status)
		}

		locked.Status = to
		now := time.Now()
		switch to {
		case constants.WithdrawalStatusCompleted:
			locked.CompletedAt = &now
		case constants.WithdrawalStatusFailed:
			locked.RejectReason = reason
			if err := s.refundBalanceTx(tx, locked); err != nil {
				return err
			}
		}
		if err := repo.Update(locked); err != nil {
			return err
		}
		withdrawal = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdrawal_status_changed", "withdrawal_id", withdrawal.ID, "from", from, "to", to)
	return withdrawal, nil
}

// refundBalanceTx 驳回/失败时把冻结金额退回余额
func (s *WalletService) refundBalanceTx(tx *gorm.DB, withdrawal *models.Withdrawal) error {
	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByIDForUpdate(withdrawal.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: 用户 %d", ErrNotFound, withdrawal.UserID)
	}
	user.Balance = models.NewMoneyFromDecimal(user.Balance.Decimal.Add(withdrawal.Amount.Decimal))
	return userRepo.Update(user)
}

// GetWithdrawal 查询提现申请，userID 非零时校验归属
func (s *WalletService) GetWithdrawal(withdrawalID, userID uint) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, fmt.Errorf("%w: 提现申请 %d", ErrNotFound, withdrawalID)
	}
	if userID != 0 && withdrawal.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return withdrawal, nil
}

// ListWithdrawals 查询提现申请列表
func (s *WalletService) ListWithdrawals(filter repository.WithdrawalListFilter) ([]models.Withdrawal, int64, error) {
	return s.withdrawalRepo.List(filter)
}
