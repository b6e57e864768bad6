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

// 单轮结算批次上限，避免一次定时任务占用长事务
const settlementBatchSize = 200

// CommissionService 佣金台账服务
type CommissionService struct {
	commissionRepo repository.CommissionRepository
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	settingService *SettingService
	notifier       *NotificationService
}

// NewCommissionService 创建佣金台账服务
func NewCommissionService(
	commissionRepo repository.CommissionRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	settingService *SettingService,
	notifier *NotificationService,
) *CommissionService {
	return &CommissionService{
		commissionRepo: commissionRepo,
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		settingService: settingService,
		notifier:       notifier,
	}
}

// CreateFrozenEntriesTx 在发货事务内写入冻结佣金记录
func (s *CommissionService) CreateFrozenEntriesTx(tx *gorm.DB, order *models.Order, entries []CommissionEntry, refundDeadline time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	deadline := refundDeadline
	logs := make([]models.CommissionLog, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, models.CommissionLog{
			OrderID:        order.ID,
			UserID:         entry.UserID,
			SourceUserID:   order.UserID,
			CommissionType: entry.CommissionType,
			Level:          entry.Level,
			BaseAmount:     entry.BaseAmount,
			RatePercent:    entry.RatePercent,
			Amount:         entry.Amount,
			Status:         constants.CommissionStatusFrozen,
			RefundDeadline: &deadline,
		})
	}
	return s.commissionRepo.WithTx(tx).CreateBatch(logs)
}

// PromoteDueCommissions 定时任务：退款保护期已过的冻结佣金转待审核（幂等）
func (s *CommissionService) PromoteDueCommissions(now time.Time) (int64, error) {
	promoted, err := s.commissionRepo.PromoteDueFrozen(now, now)
	if err != nil {
		return 0, err
	}
	if promoted > 0 {
		logger.Infow("commission_promote_pass_done", "promoted", promoted)
	}
	return promoted, nil
}

// Approve 审核通过单条佣金
func (s *CommissionService) Approve(entryID, reviewerID uint, now time.Time) (*models.CommissionLog, error) {
	var approved *models.CommissionLog
	err := s.commissionRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.commissionRepo.WithTx(tx)
		entry, err := repo.GetByIDForUpdate(entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: 佣金记录 %d", ErrNotFound, entryID)
		}
		if entry.Status != constants.CommissionStatusPendingApproval {
			return fmt.Errorf("%w: %s", ErrCommissionStatusInvalid, entry.Status)
		}
		entry.Status = constants.CommissionStatusApproved
		entry.ApprovedBy = &reviewerID
		entry.ApprovedAt = &now
		if err := repo.Update(entry); err != nil {
			return err
		}
		approved = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.SendAsync(approved.UserID, constants.NotificationTypeCommissionApproved,
		"佣金审核通过",
		fmt.Sprintf("您的佣金 ¥%s 已审核通过，将在结算批次中发放。", approved.Amount.String()),
		fmt.Sprintf("commission:%d:approved", approved.ID))
	return approved, nil
}

// BatchApprove 批量审核通过，返回成功条数
func (s *CommissionService) BatchApprove(entryIDs []uint, reviewerID uint, now time.Time) (int, error) {
	succeeded := 0
	for _, id := range entryIDs {
		if _, err := s.Approve(id, reviewerID, now); err != nil {
			logger.Warnw("commission_batch_approve_skip", "entry_id", id, "error", err)
			continue
		}
		succeeded++
	}
	return succeeded, nil
}

// Cancel 作废非终态佣金记录；已结算记录必须走退款追回，不允许直接作废
func (s *CommissionService) Cancel(entryID uint, reason string, now time.Time) error {
	return s.commissionRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.commissionRepo.WithTx(tx)
		entry, err := repo.GetByIDForUpdate(entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: 佣金记录 %d", ErrNotFound, entryID)
		}
		switch entry.Status {
		case constants.CommissionStatusSettled, constants.CommissionStatusCancelled:
			return fmt.Errorf("%w: %s", ErrCommissionStatusInvalid, entry.Status)
		}
		entry.Status = constants.CommissionStatusCancelled
		entry.CancelReason = reason
		return repo.Update(entry)
	})
}

// SettleApproved 定时任务：结算已审核佣金
//
// 结算顺序：先抵扣受益人欠款，剩余进入余额。每条记录独立事务，
// 失败只影响该条，下一轮重试。
func (s *CommissionService) SettleApproved(now time.Time) (int64, error) {
	rows, err := s.commissionRepo.ListApprovedForSettlement(settlementBatchSize)
	if err != nil {
		return 0, err
	}

	var settled int64
	for i := range rows {
		entryID := rows[i].ID
		if err := s.settleOne(entryID, now); err != nil {
			logger.Errorw("commission_settle_failed", "entry_id", entryID, "error", err)
			continue
		}
		settled++
	}
	if settled > 0 {
		logger.Infow("commission_settle_pass_done", "settled", settled)
	}
	return settled, nil
}

func (s *CommissionService) settleOne(entryID uint, now time.Time) error {
	var beneficiaryID uint
	var amountText string
	err := s.commissionRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.commissionRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		entry, err := repo.GetByIDForUpdate(entryID)
		if err != nil {
			return err
		}
		if entry == nil || entry.Status != constants.CommissionStatusApproved {
			// 已被并发结算或作废，跳过
			return nil
		}

		user, err := userRepo.GetByIDForUpdate(entry.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: 受益人 %d", ErrNotFound, entry.UserID)
		}

		amount := entry.Amount.Decimal
		repay := decimal.Min(amount, user.DebtAmount.Decimal)
		credit := amount.Sub(repay)

		user.DebtAmount = models.NewMoneyFromDecimal(user.DebtAmount.Decimal.Sub(repay))
		user.Balance = models.NewMoneyFromDecimal(user.Balance.Decimal.Add(credit))
		user.TotalCommission = models.NewMoneyFromDecimal(user.TotalCommission.Decimal.Add(amount))
		if err := userRepo.Update(user); err != nil {
			return err
		}

		entry.Status = constants.CommissionStatusSettled
		entry.SettledAt = &now
		if err := repo.Update(entry); err != nil {
			return err
		}

		if repay.IsPositive() {
			logger.Infow("commission_settle_debt_repaid",
				"entry_id", entry.ID, "user_id", user.ID,
				"repaid", repay.Round(2).StringFixed(2),
				"credited", credit.Round(2).StringFixed(2),
			)
		}

		beneficiaryID = entry.UserID
		amountText = entry.Amount.String()
		return s.refreshOrderSettledFlagTx(tx, entry.OrderID)
	})
	if err != nil {
		return err
	}

	if beneficiaryID != 0 {
		s.notifier.SendAsync(beneficiaryID, constants.NotificationTypeCommissionSettled,
			"佣金结算到账",
			fmt.Sprintf("您的佣金 ¥%s 已结算。", amountText),
			fmt.Sprintf("commission:%d:settled", entryID))
	}
	return nil
}

// refreshOrderSettledFlagTx 当订单全部佣金进入终态时标记订单佣金已结算
func (s *CommissionService) refreshOrderSettledFlagTx(tx *gorm.DB, orderID uint) error {
	repo := s.commissionRepo.WithTx(tx)
	open, err := repo.ListByOrder(orderID, []string{
		constants.CommissionStatusFrozen,
		constants.CommissionStatusPendingApproval,
		constants.CommissionStatusApproved,
	})
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return nil
	}
	return s.orderRepo.WithTx(tx).UpdateFields(orderID, map[string]interface{}{
		"commission_settled": true,
	})
}

// List 查询佣金记录列表
func (s *CommissionService) List(filter repository.CommissionListFilter) ([]models.CommissionLog, int64, error) {
	return s.commissionRepo.List(filter)
}

// GetByID 查询佣金记录
func (s *CommissionService) GetByID(id uint) (*models.CommissionLog, error) {
	entry, err := s.commissionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: 佣金记录 %d", ErrNotFound, id)
	}
	return entry, nil
}

// SumByUser 汇总用户指定状态的佣金金额
func (s *CommissionService) SumByUser(userID uint, statuses []string) (models.Money, error) {
	total, err := s.commissionRepo.SumByUserAndStatuses(userID, statuses)
	if err != nil {
		return models.Money{}, err
	}
	return models.NewMoneyFromDecimal(total), nil
}
