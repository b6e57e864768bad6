package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithdrawalRepository 提现申请数据访问接口
type WithdrawalRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) WithdrawalRepository

	Create(withdrawal *models.Withdrawal) error
	Update(withdrawal *models.Withdrawal) error
	GetByID(id uint) (*models.Withdrawal, error)
	GetByIDForUpdate(id uint) (*models.Withdrawal, error)
	List(filter WithdrawalListFilter) ([]models.Withdrawal, int64, error)

	CountByUserSince(userID uint, since time.Time) (int64, error)
	SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error)
}

// GormWithdrawalRepository GORM 提现申请仓储
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现申请仓储
func NewWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWithdrawalRepository) WithTx(tx *gorm.DB) WithdrawalRepository {
	if tx == nil {
		return r
	}
	return &GormWithdrawalRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWithdrawalRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建提现申请
func (r *GormWithdrawalRepository) Create(withdrawal *models.Withdrawal) error {
	return r.db.Create(withdrawal).Error
}

// Update 保存提现申请
func (r *GormWithdrawalRepository) Update(withdrawal *models.Withdrawal) error {
	return r.db.Save(withdrawal).Error
}

// GetByID 按ID获取提现申请
func (r *GormWithdrawalRepository) GetByID(id uint) (*models.Withdrawal, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Withdrawal
	if err := r.db.Preload("User").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByIDForUpdate 按ID锁定查询提现申请
func (r *GormWithdrawalRepository) GetByIDForUpdate(id uint) (*models.Withdrawal, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Withdrawal
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询提现申请列表
func (r *GormWithdrawalRepository) List(filter WithdrawalListFilter) ([]models.Withdrawal, int64, error) {
	query := r.db.Model(&models.Withdrawal{}).Preload("User")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if no := strings.TrimSpace(filter.WithdrawalNo); no != "" {
		query = query.Where("withdrawal_no LIKE ?", "%"+no+"%")
	}
	if keyword := strings.TrimSpace(filter.AccountKeyword); keyword != "" {
		like := "%" + keyword + "%"
		condition, argCount := buildKeywordLikeCondition(r.db, nil, map[string][]string{
			"account_info_json": {"account_name", "account_no"},
		})
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Withdrawal
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountByUserSince 统计用户自指定时间起的有效提现申请数（不含已驳回/失败）
func (r *GormWithdrawalRepository) CountByUserSince(userID uint, since time.Time) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Withdrawal{}).
		Where("user_id = ? AND created_at >= ? AND status NOT IN ?", userID, since,
			[]string{constants.WithdrawalStatusRejected, constants.WithdrawalStatusFailed}).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumByUserAndStatuses 汇总用户指定状态提现金额
func (r *GormWithdrawalRepository) SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Withdrawal{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
