package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionLog 佣金台账记录
//
// 状态机：frozen → pending_approval → approved → settled；
// cancelled 可从任一非终态进入。settled/cancelled 为终态。
type CommissionLog struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                                                                 // 主键
	OrderID        uint           `gorm:"not null;index;index:idx_commission_log_unique,unique" json:"order_id"`                                // 订单ID
	UserID         uint           `gorm:"not null;index;index:idx_commission_log_unique,unique" json:"user_id"`                                 // 受益人用户ID
	SourceUserID   uint           `gorm:"not null;index" json:"source_user_id"`                                                                 // 产生佣金的买家用户ID
	CommissionType string         `gorm:"type:varchar(32);not null;index:idx_commission_log_unique,unique" json:"commission_type"`              // 佣金类型（self/direct/indirect/gap/agent_fulfillment）
	Level          int            `gorm:"not null;default:0" json:"level"`                                                                      // 与买家的链路距离（0 自购返利 / 1 直推 / 2 间推）
	BaseAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_amount"`                                             // 佣金基数金额
	RatePercent    Money          `gorm:"type:decimal(10,2);not null;default:0" json:"rate_percent"`                                            // 佣金比例（百分比，固定额模式为 0）
	Amount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                                  // 佣金金额
	Status         string         `gorm:"type:varchar(32);not null;index" json:"status"`                                                        // 佣金状态
	RefundDeadline *time.Time     `gorm:"index" json:"refund_deadline,omitempty"`                                                               // 退款保护期截止（过期后转待审核）
	AvailableAt    *time.Time     `gorm:"index" json:"available_at,omitempty"`                                                                  // 转待审核时间
	ApprovedBy     *uint          `gorm:"index" json:"approved_by,omitempty"`                                                                   // 审核人ID
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`                                                                                // 审核通过时间
	SettledAt      *time.Time     `gorm:"index" json:"settled_at,omitempty"`                                                                    // 结算时间
	CancelReason   string         `gorm:"type:varchar(255)" json:"cancel_reason"`                                                               // 作废原因
	Remark         string         `gorm:"type:varchar(255)" json:"remark"`                                                                      // 调整备注（退款扣减/扣回记录）
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                                                              // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                                                              // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                                                       // 软删除时间

	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`   // 受益人
	Order Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 关联订单
}

// TableName 指定表名
func (CommissionLog) TableName() string {
	return "commission_logs"
}
