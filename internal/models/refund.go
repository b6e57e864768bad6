package models

import (
	"time"

	"gorm.io/gorm"
)

// Refund 退款申请表
type Refund struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                            // 主键
	RefundNo       string         `gorm:"uniqueIndex;not null" json:"refund_no"`                           // 退款单号
	OrderID        uint           `gorm:"not null;index" json:"order_id"`                                  // 订单ID
	UserID         uint           `gorm:"not null;index" json:"user_id"`                                   // 申请人用户ID
	RefundType     string         `gorm:"type:varchar(32);not null" json:"refund_type"`                    // 退款类型（仅退款/退货退款）
	Amount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`             // 申请退款金额
	RefundQuantity int            `gorm:"not null;default:0" json:"refund_quantity"`                       // 退货数量（仅退款为 0）
	Reason         string         `gorm:"type:varchar(500)" json:"reason"`                                 // 退款原因
	Status         string         `gorm:"type:varchar(32);not null;index" json:"status"`                   // 退款状态
	RejectReason   string         `gorm:"type:varchar(255)" json:"reject_reason"`                          // 驳回原因
	ClawbackAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"clawback_amount"`    // 已结算佣金追回金额
	DebtAccrued    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"debt_accrued"`       // 余额不足转入欠款的金额
	ReviewedBy     *uint          `gorm:"index" json:"reviewed_by,omitempty"`                              // 审核人ID
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"`                                           // 审核时间
	CompletedAt    *time.Time     `gorm:"index" json:"completed_at,omitempty"`                             // 完成时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Order Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 关联订单
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`   // 申请人
}

// TableName 指定表名
func (Refund) TableName() string {
	return "refunds"
}
