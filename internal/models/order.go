package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                                  // 主键
	OrderNo               string         `gorm:"uniqueIndex;not null" json:"order_no"`                                  // 订单编号
	UserID                uint           `gorm:"index;not null" json:"user_id"`                                         // 买家用户ID
	ProductID             uint           `gorm:"index;not null" json:"product_id"`                                      // 商品ID
	SKUID                 *uint          `gorm:"index" json:"sku_id,omitempty"`                                         // SKU ID
	Quantity              int            `gorm:"not null;default:1" json:"quantity"`                                    // 购买数量
	BuyerRoleLevel        int            `gorm:"not null;default:0" json:"buyer_role_level"`                            // 下单时买家角色等级快照
	UnitPrice             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`               // 成交单价（按角色解析）
	TotalAmount           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`             // 实付金额
	LockedAgentCost       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"locked_agent_cost"`        // 锁定供货成本（下单时快照，不再重算）
	RefundedAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"`          // 已完成退款金额
	RefundedQuantity      int            `gorm:"not null;default:0" json:"refunded_quantity"`                           // 已退货数量
	MiddleCommissionTotal Money          `gorm:"type:decimal(20,2);not null;default:0" json:"middle_commission_total"`  // 本单中间层佣金合计（随退款回冲重算）
	CommissionSettled     bool           `gorm:"not null;default:false" json:"commission_settled"`                      // 本单佣金是否已全部结算
	FulfillerID           *uint          `gorm:"index" json:"fulfiller_id,omitempty"`                                   // 履约代理用户ID（代理发货时剩余利润归属）
	FulfillmentType       string         `gorm:"type:varchar(20);not null;default:company" json:"fulfillment_type"`     // 履约类型（company/agent/restock，采购入仓单走线下售后）
	Status                string         `gorm:"index;not null" json:"status"`                                          // 订单状态
	SettlementAt          *time.Time     `gorm:"index" json:"settlement_at,omitempty"`                                  // 预计结算时间（发货时间+冻结期）
	RefundDeadline        *time.Time     `gorm:"index" json:"refund_deadline,omitempty"`                                // 退款保护期截止时间
	ExpiresAt             *time.Time     `gorm:"index" json:"expires_at,omitempty"`                                     // 待支付过期时间
	PaidAt                *time.Time     `gorm:"index" json:"paid_at,omitempty"`                                        // 支付时间
	ShippedAt             *time.Time     `gorm:"index" json:"shipped_at,omitempty"`                                     // 发货时间
	CompletedAt           *time.Time     `gorm:"index" json:"completed_at,omitempty"`                                   // 完成时间
	CancelledAt           *time.Time     `json:"cancelled_at,omitempty"`                                                // 取消时间
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                               // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                               // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                                        // 软删除时间

	// 关联
	User        User            `gorm:"foreignKey:UserID" json:"user,omitempty"`        // 买家
	Product     Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`  // 商品
	SKU         *ProductSKU     `gorm:"foreignKey:SKUID" json:"sku,omitempty"`          // SKU
	Commissions []CommissionLog `gorm:"foreignKey:OrderID" json:"commissions,omitempty"` // 佣金记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
