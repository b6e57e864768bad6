package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（含分级价格）
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Name          string         `gorm:"not null" json:"name"`                                           // 商品名称
	Description   string         `gorm:"type:text" json:"description"`                                   // 商品描述
	Images        StringArray    `gorm:"type:json" json:"images"`                                        // 图片数组
	RetailPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"retail_price"`      // 零售价
	MemberPrice   *Money         `gorm:"type:decimal(20,2)" json:"member_price,omitempty"`               // 会员价
	LeaderPrice   *Money         `gorm:"type:decimal(20,2)" json:"leader_price,omitempty"`               // 团长价
	AgentPrice    *Money         `gorm:"type:decimal(20,2)" json:"agent_price,omitempty"`                // 代理价
	WholesaleCost Money          `gorm:"type:decimal(20,2);not null;default:0" json:"wholesale_cost"`    // 供货成本（下单时快照为订单锁定成本）
	Stock         int            `gorm:"not null;default:0" json:"stock"`                                // 库存
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                            // 是否上架
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                              // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                     // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	SKUs []ProductSKU `gorm:"foreignKey:ProductID" json:"skus,omitempty"` // SKU 列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
