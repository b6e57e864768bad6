package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductSKU 商品 SKU 表（规格维度的价格覆盖）
type ProductSKU struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                                                       // 主键
	ProductID     uint           `gorm:"not null;index;uniqueIndex:idx_product_sku_code" json:"product_id"`                          // 商品ID
	SKUCode       string         `gorm:"column:sku_code;type:varchar(64);not null;uniqueIndex:idx_product_sku_code" json:"sku_code"` // SKU编码（同商品内唯一）
	SpecValuesJSON JSON          `gorm:"type:json" json:"spec_values"`                                                               // 规格值（如颜色/规格）
	RetailPrice   *Money         `gorm:"type:decimal(20,2)" json:"retail_price,omitempty"`                                           // 零售价覆盖
	MemberPrice   *Money         `gorm:"type:decimal(20,2)" json:"member_price,omitempty"`                                           // 会员价覆盖
	LeaderPrice   *Money         `gorm:"type:decimal(20,2)" json:"leader_price,omitempty"`                                           // 团长价覆盖
	AgentPrice    *Money         `gorm:"type:decimal(20,2)" json:"agent_price,omitempty"`                                            // 代理价覆盖
	WholesaleCost *Money         `gorm:"type:decimal(20,2)" json:"wholesale_cost,omitempty"`                                         // 供货成本覆盖
	Stock         int            `gorm:"not null;default:0" json:"stock"`                                                            // 库存
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                                                        // 是否启用
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                                                          // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                                                    // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                                                    // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                                             // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductSKU) TableName() string {
	return "product_skus"
}
