package service

import (
	"fmt"
	"strings"

	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"
)

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List 查询商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetByID 查询商品（含 SKU）
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: 商品 %d", ErrNotFound, id)
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: 商品名称为空", ErrConfigInvalid)
	}
	if !product.RetailPrice.Decimal.IsPositive() {
		return fmt.Errorf("%w: 零售价必须大于 0", ErrConfigInvalid)
	}
	if err := s.productRepo.Create(product); err != nil {
		return err
	}
	logger.Infow("product_created", "product_id", product.ID, "name", product.Name)
	return nil
}

// Update 更新商品
func (s *ProductService) Update(product *models.Product) error {
	if product.ID == 0 {
		return fmt.Errorf("%w: 商品", ErrNotFound)
	}
	return s.productRepo.Update(product)
}

// SetActive 上下架商品
func (s *ProductService) SetActive(id uint, active bool) error {
	product, err := s.GetByID(id)
	if err != nil {
		return err
	}
	product.IsActive = active
	return s.productRepo.Update(product)
}
