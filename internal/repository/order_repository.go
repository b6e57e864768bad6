package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *models.Order) error
	Update(order *models.Order) error
	UpdateFields(id uint, updates map[string]interface{}) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)

	ListTimeoutPending(before time.Time, limit int) ([]models.Order, error)
	ListShippedBefore(before time.Time, limit int) ([]models.Order, error)
	CountCompletedByUser(userID uint) (int64, error)
}

// GormOrderRepository GORM 订单仓储
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update 保存订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateFields 按字段更新订单
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// GetByID 按ID获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Product").Preload("SKU").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 按ID锁定查询订单
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 按订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	normalized := strings.TrimSpace(orderNo)
	if normalized == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("order_no = ?", normalized).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 查询订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+orderNo+"%")
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

	var rows []models.Order
	if err := query.Preload("Product").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListTimeoutPending 查询超时未支付订单
func (r *GormOrderRepository) ListTimeoutPending(before time.Time, limit int) ([]models.Order, error) {
	query := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", constants.OrderStatusPending, before).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListShippedBefore 查询发货超期待自动确认收货的订单
func (r *GormOrderRepository) ListShippedBefore(before time.Time, limit int) ([]models.Order, error) {
	query := r.db.Where("status = ? AND shipped_at IS NOT NULL AND shipped_at <= ?", constants.OrderStatusShipped, before).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountCompletedByUser 统计用户已完成订单数
func (r *GormOrderRepository) CountCompletedByUser(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Order{}).
		Where("user_id = ? AND status = ?", userID, constants.OrderStatusCompleted).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
