package repository

import (
	"errors"
	"strings"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefundRepository 退款申请数据访问接口
type RefundRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) RefundRepository

	Create(refund *models.Refund) error
	Update(refund *models.Refund) error
	GetByID(id uint) (*models.Refund, error)
	GetByIDForUpdate(id uint) (*models.Refund, error)
	List(filter RefundListFilter) ([]models.Refund, int64, error)

	CountActiveByOrder(orderID uint) (int64, error)
	SumCompletedAmountByOrder(orderID uint) (decimal.Decimal, error)
}

// GormRefundRepository GORM 退款申请仓储
type GormRefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款申请仓储
func NewRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRefundRepository) WithTx(tx *gorm.DB) RefundRepository {
	if tx == nil {
		return r
	}
	return &GormRefundRepository{db: tx}
}

// Transaction 执行事务
func (r *GormRefundRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建退款申请
func (r *GormRefundRepository) Create(refund *models.Refund) error {
	return r.db.Create(refund).Error
}

// Update 保存退款申请
func (r *GormRefundRepository) Update(refund *models.Refund) error {
	return r.db.Save(refund).Error
}

// GetByID 按ID获取退款申请
func (r *GormRefundRepository) GetByID(id uint) (*models.Refund, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Refund
	if err := r.db.Preload("Order").Preload("User").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByIDForUpdate 按ID锁定查询退款申请
func (r *GormRefundRepository) GetByIDForUpdate(id uint) (*models.Refund, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Refund
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询退款申请列表
func (r *GormRefundRepository) List(filter RefundListFilter) ([]models.Refund, int64, error) {
	query := r.db.Model(&models.Refund{}).Preload("Order").Preload("User")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if refundNo := strings.TrimSpace(filter.RefundNo); refundNo != "" {
		query = query.Where("refund_no LIKE ?", "%"+refundNo+"%")
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

	var rows []models.Refund
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountActiveByOrder 统计订单下未完结的退款申请数
func (r *GormRefundRepository) CountActiveByOrder(orderID uint) (int64, error) {
	if orderID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Refund{}).
		Where("order_id = ? AND status IN ?", orderID,
			[]string{constants.RefundStatusPending, constants.RefundStatusApproved}).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumCompletedAmountByOrder 汇总订单已完成退款金额
func (r *GormRefundRepository) SumCompletedAmountByOrder(orderID uint) (decimal.Decimal, error) {
	if orderID == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Refund{}).
		Where("order_id = ? AND status = ?", orderID, constants.RefundStatusCompleted).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
