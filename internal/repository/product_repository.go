package repository

import (
	"errors"
	"strings"

	"github.com/fenxiao-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository

	GetByID(id uint) (*models.Product, error)
	GetByIDForUpdate(id uint) (*models.Product, error)
	GetSKUByID(id uint) (*models.ProductSKU, error)
	GetSKUByIDForUpdate(id uint) (*models.ProductSKU, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	List(filter ProductListFilter) ([]models.Product, int64, error)
	AdjustStock(productID uint, skuID *uint, delta int) error
}

// GormProductRepository GORM 商品仓储
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Preload("SKUs").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByIDForUpdate 按ID锁定查询商品
func (r *GormProductRepository) GetByIDForUpdate(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetSKUByID 按ID获取SKU
func (r *GormProductRepository) GetSKUByID(id uint) (*models.ProductSKU, error) {
	if id == 0 {
		return nil, nil
	}
	var sku models.ProductSKU
	if err := r.db.First(&sku, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sku, nil
}

// GetSKUByIDForUpdate 按ID锁定查询SKU
func (r *GormProductRepository) GetSKUByIDForUpdate(id uint) (*models.ProductSKU, error) {
	if id == 0 {
		return nil, nil
	}
	var sku models.ProductSKU
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sku, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sku, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 保存商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// List 查询商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		condition, argCount := buildKeywordLikeCondition(r.db, []string{"name", "description"}, nil)
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.WithSKUs {
		query = query.Preload("SKUs")
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Product
	if err := query.Order("sort_order desc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AdjustStock 调整库存（下单扣减为负值，取消/退货回补为正值）
func (r *GormProductRepository) AdjustStock(productID uint, skuID *uint, delta int) error {
	if delta == 0 {
		return nil
	}
	if skuID != nil && *skuID != 0 {
		return r.db.Model(&models.ProductSKU{}).Where("id = ?", *skuID).
			Update("stock", gorm.Expr("stock + ?", delta)).Error
	}
	if productID == 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}
