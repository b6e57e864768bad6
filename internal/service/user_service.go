package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"

	"gorm.io/gorm"
)

// 分销链向上遍历的安全上限，防御脏数据成环
const uplineWalkLimit = 50

// UserService 用户与分销关系服务
type UserService struct {
	userRepo       repository.UserRepository
	commissionRepo repository.CommissionRepository
	settingService *SettingService
	notifier       *NotificationService
}

// NewUserService 创建用户服务
func NewUserService(
	userRepo repository.UserRepository,
	commissionRepo repository.CommissionRepository,
	settingService *SettingService,
	notifier *NotificationService,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		commissionRepo: commissionRepo,
		settingService: settingService,
		notifier:       notifier,
	}
}

// Register 注册用户，inviterID 非零时同时绑定上级
func (s *UserService) Register(phone, nickname string, inviterID uint) (*models.User, error) {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return nil, fmt.Errorf("%w: 手机号为空", ErrParentInvalid)
	}
	existing, err := s.userRepo.GetByPhone(normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user := &models.User{
		Phone:     normalized,
		Nickname:  strings.TrimSpace(nickname),
		Status:    constants.UserStatusActive,
		RoleLevel: constants.RoleGuest,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	if inviterID != 0 {
		if err := s.BindParent(user.ID, inviterID); err != nil {
			logger.Warnw("register_bind_parent_failed", "user_id", user.ID, "inviter_id", inviterID, "error", err)
		}
	}
	return user, nil
}

// GetByID 查询用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: 用户 %d", ErrNotFound, id)
	}
	return user, nil
}

// List 查询用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// BindParent 绑定上级（仅允许一次，先绑定者生效）
func (s *UserService) BindParent(userID, parentID uint) error {
	if userID == 0 || parentID == 0 || userID == parentID {
		return ErrParentInvalid
	}

	var boundParentID uint
	err := s.userRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)

		user, err := repo.GetByIDForUpdate(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: 用户 %d", ErrNotFound, userID)
		}
		if user.ParentID != nil {
			return ErrParentAlreadyBound
		}

		parent, err := repo.GetByID(parentID)
		if err != nil {
			return err
		}
		if parent == nil || parent.Status != constants.UserStatusActive {
			return ErrParentInvalid
		}

		// 上级的祖先链不允许包含本人，防止绑定成环
		cursor := parent.ParentID
		for depth := 0; cursor != nil && depth < uplineWalkLimit; depth++ {
			if *cursor == userID {
				return ErrParentInvalid
			}
			ancestor, err := repo.GetByID(*cursor)
			if err != nil {
				return err
			}
			if ancestor == nil {
				break
			}
			cursor = ancestor.ParentID
		}

		now := time.Now()
		user.ParentID = &parentID
		user.ParentBoundAt = &now
		if err := repo.Update(user); err != nil {
			return err
		}
		if err := repo.IncrementRefereeCount(parentID, now); err != nil {
			return err
		}
		boundParentID = parentID
		return nil
	})
	if err != nil {
		return err
	}

	// 直推人数变化可能触发上级升级
	if err := s.CheckRoleUpgrade(boundParentID); err != nil {
		logger.Warnw("bind_parent_upgrade_check_failed", "parent_id", boundParentID, "error", err)
	}
	return nil
}

// ResolveUpline 解析买家的两级上级（发货分佣输入）
func (s *UserService) ResolveUpline(buyer *models.User) (*models.User, *models.User, error) {
	if buyer == nil || buyer.ParentID == nil {
		return nil, nil, nil
	}
	parent, err := s.userRepo.GetByID(*buyer.ParentID)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil || parent.ID == buyer.ID {
		return nil, nil, nil
	}
	if parent.ParentID == nil {
		return parent, nil, nil
	}
	grandparent, err := s.userRepo.GetByID(*parent.ParentID)
	if err != nil {
		return nil, nil, err
	}
	if grandparent != nil && (grandparent.ID == buyer.ID || grandparent.ID == parent.ID) {
		grandparent = nil
	}
	return parent, grandparent, nil
}

// ApplyPurchaseUpgradeTx 首次支付后游客自动升级会员（发生在支付事务内）
func (s *UserService) ApplyPurchaseUpgradeTx(tx *gorm.DB, userID uint, now time.Time) error {
	repo := s.userRepo.WithTx(tx)
	user, err := repo.GetByIDForUpdate(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: 用户 %d", ErrNotFound, userID)
	}

	updates := map[string]interface{}{}
	if user.FirstPurchaseAt == nil {
		updates["first_purchase_at"] = now
	}
	if user.RoleLevel == constants.RoleGuest {
		updates["role_level"] = constants.RoleMember
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = now
	if err := repo.UpdateFields(user.ID, updates); err != nil {
		return err
	}
	if user.RoleLevel == constants.RoleGuest {
		s.notifier.SendAsync(user.ID, constants.NotificationTypeRoleUpgraded,
			"会员升级成功", "您已升级为会员，可享会员价购买商品。",
			fmt.Sprintf("upgrade:%d:member", user.ID))
	}
	return nil
}

// CheckRoleUpgrade 检查并执行角色升级（会员→团长、团长→代理）
func (s *UserService) CheckRoleUpgrade(userID uint) error {
	if userID == 0 {
		return nil
	}
	setting, err := s.settingService.GetUpgradeSetting()
	if err != nil {
		return err
	}

	var upgradedTo int
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)
		user, err := repo.GetByIDForUpdate(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return nil
		}

		target := user.RoleLevel
		if user.RoleLevel == constants.RoleMember && user.RefereeCount >= setting.LeaderRefereeCount {
			target = constants.RoleLeader
		}
		if user.RoleLevel == constants.RoleLeader && user.OrderCount >= setting.AgentOrderCount {
			target = constants.RoleAgent
		}
		if target == user.RoleLevel {
			return nil
		}
		if err := repo.UpdateFields(user.ID, map[string]interface{}{
			"role_level": target,
			"updated_at": time.Now(),
		}); err != nil {
			return err
		}
		upgradedTo = target
		return nil
	})
	if err != nil {
		return err
	}

	if upgradedTo != 0 {
		roleName := "团长"
		if upgradedTo == constants.RoleAgent {
			roleName = "代理"
		}
		logger.Infow("user_role_upgraded", "user_id", userID, "role_level", upgradedTo)
		s.notifier.SendAsync(userID, constants.NotificationTypeRoleUpgraded,
			"角色升级成功", fmt.Sprintf("恭喜您升级为%s。", roleName),
			fmt.Sprintf("upgrade:%d:%d", userID, upgradedTo))
	}
	return nil
}

// DistributionStats 分销统计概览
type DistributionStats struct {
	DirectCount     int64        `json:"direct_count"`
	IndirectCount   int64        `json:"indirect_count"`
	FrozenAmount    models.Money `json:"frozen_amount"`
	PendingAmount   models.Money `json:"pending_amount"`
	ApprovedAmount  models.Money `json:"approved_amount"`
	SettledAmount   models.Money `json:"settled_amount"`
	CancelledAmount models.Money `json:"cancelled_amount"`
}

// GetDistributionStats 查询两级团队规模与各状态佣金合计
func (s *UserService) GetDistributionStats(userID uint) (*DistributionStats, error) {
	stats := &DistributionStats{}

	directCount, err := s.userRepo.CountByParent(userID)
	if err != nil {
		return nil, err
	}
	stats.DirectCount = directCount

	directIDs, err := s.userRepo.ListIDsByParents([]uint{userID})
	if err != nil {
		return nil, err
	}
	indirectIDs, err := s.userRepo.ListIDsByParents(directIDs)
	if err != nil {
		return nil, err
	}
	stats.IndirectCount = int64(len(indirectIDs))

	sums := map[string]*models.Money{
		constants.CommissionStatusFrozen:          &stats.FrozenAmount,
		constants.CommissionStatusPendingApproval: &stats.PendingAmount,
		constants.CommissionStatusApproved:        &stats.ApprovedAmount,
		constants.CommissionStatusSettled:         &stats.SettledAmount,
		constants.CommissionStatusCancelled:       &stats.CancelledAmount,
	}
	for status, target := range sums {
		total, err := s.commissionRepo.SumByUserAndStatuses(userID, []string{status})
		if err != nil {
			return nil, err
		}
		*target = models.NewMoneyFromDecimal(total)
	}
	return stats, nil
}
