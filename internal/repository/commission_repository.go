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

// CommissionRepository 佣金台账数据访问接口
type CommissionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionRepository

	Create(log *models.CommissionLog) error
	CreateBatch(logs []models.CommissionLog) error
	Update(log *models.CommissionLog) error
	GetByID(id uint) (*models.CommissionLog, error)
	GetByIDForUpdate(id uint) (*models.CommissionLog, error)
	List(filter CommissionListFilter) ([]models.CommissionLog, int64, error)
	ListByOrder(orderID uint, statuses []string) ([]models.CommissionLog, error)
	ListByOrderForUpdate(orderID uint, statuses []string) ([]models.CommissionLog, error)
	ListByIDsForUpdate(ids []uint) ([]models.CommissionLog, error)

	PromoteDueFrozen(before, now time.Time) (int64, error)
	ListApprovedForSettlement(limit int) ([]models.CommissionLog, error)
	BatchUpdate(ids []uint, updates map[string]interface{}) error
	SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error)
	SumByOrder(orderID uint, statuses []string, types []string) (decimal.Decimal, error)
}

// GormCommissionRepository GORM 佣金台账仓储
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金台账仓储
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建佣金记录
func (r *GormCommissionRepository) Create(log *models.CommissionLog) error {
	return r.db.Create(log).Error
}

// CreateBatch 批量创建佣金记录
func (r *GormCommissionRepository) CreateBatch(logs []models.CommissionLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.Create(&logs).Error
}

// Update 保存佣金记录
func (r *GormCommissionRepository) Update(log *models.CommissionLog) error {
	return r.db.Save(log).Error
}

// GetByID 按ID获取佣金记录
func (r *GormCommissionRepository) GetByID(id uint) (*models.CommissionLog, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.CommissionLog
	if err := r.db.Preload("User").Preload("Order").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByIDForUpdate 按ID锁定查询佣金记录
func (r *GormCommissionRepository) GetByIDForUpdate(id uint) (*models.CommissionLog, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.CommissionLog
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询佣金记录列表
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.CommissionLog, int64, error) {
	query := r.db.Model(&models.CommissionLog{}).Preload("User").Preload("Order")
	if filter.UserID != 0 {
		query = query.Where("commission_logs.user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("commission_logs.order_id = ?", filter.OrderID)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Joins("LEFT JOIN orders ON orders.id = commission_logs.order_id").
			Where("orders.order_no LIKE ?", "%"+orderNo+"%")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("commission_logs.status = ?", status)
	}
	if ctype := strings.TrimSpace(filter.CommissionType); ctype != "" {
		query = query.Where("commission_logs.commission_type = ?", ctype)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("commission_logs.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("commission_logs.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.CommissionLog
	if err := query.Order("commission_logs.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByOrder 按订单查询佣金记录
func (r *GormCommissionRepository) ListByOrder(orderID uint, statuses []string) ([]models.CommissionLog, error) {
	if orderID == 0 {
		return []models.CommissionLog{}, nil
	}
	query := r.db.Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.CommissionLog
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByOrderForUpdate 按订单锁定查询佣金记录
func (r *GormCommissionRepository) ListByOrderForUpdate(orderID uint, statuses []string) ([]models.CommissionLog, error) {
	if orderID == 0 {
		return []models.CommissionLog{}, nil
	}
	query := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.CommissionLog
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByIDsForUpdate 按ID集合锁定查询佣金记录
func (r *GormCommissionRepository) ListByIDsForUpdate(ids []uint) ([]models.CommissionLog, error) {
	if len(ids) == 0 {
		return []models.CommissionLog{}, nil
	}
	var rows []models.CommissionLog
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PromoteDueFrozen 批量将退款保护期已过的冻结佣金转为待审核，
// 跳过期间已退款/已取消订单的记录
func (r *GormCommissionRepository) PromoteDueFrozen(before, now time.Time) (int64, error) {
	excluded := r.db.Model(&models.Order{}).Select("id").
		Where("status IN ?", []string{constants.OrderStatusRefunded, constants.OrderStatusCancelled})
	result := r.db.Model(&models.CommissionLog{}).
		Where("status = ? AND refund_deadline IS NOT NULL AND refund_deadline <= ?",
			constants.CommissionStatusFrozen, before).
		Where("order_id NOT IN (?)", excluded).
		Updates(map[string]interface{}{
			"status":       constants.CommissionStatusPendingApproval,
			"available_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListApprovedForSettlement 查询待结算的已审核佣金
func (r *GormCommissionRepository) ListApprovedForSettlement(limit int) ([]models.CommissionLog, error) {
	query := r.db.Where("status = ?", constants.CommissionStatusApproved).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.CommissionLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BatchUpdate 批量更新佣金记录
func (r *GormCommissionRepository) BatchUpdate(ids []uint, updates map[string]interface{}) error {
	if len(ids) == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.CommissionLog{}).Where("id IN ?", ids).Updates(updates).Error
}

// SumByUserAndStatuses 汇总用户指定状态佣金金额
func (r *GormCommissionRepository) SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.CommissionLog{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// SumByOrder 汇总订单指定状态与类型的佣金金额
func (r *GormCommissionRepository) SumByOrder(orderID uint, statuses []string, types []string) (decimal.Decimal, error) {
	if orderID == 0 {
		return decimal.Zero, nil
	}
	query := r.db.Model(&models.CommissionLog{}).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if len(types) > 0 {
		query = query.Where("commission_type IN ?", types)
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
