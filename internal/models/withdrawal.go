package models

import (
	"time"

	"gorm.io/gorm"
)

// Withdrawal 提现申请表
type Withdrawal struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                        // 主键
	WithdrawalNo    string         `gorm:"uniqueIndex;not null" json:"withdrawal_no"`                   // 提现单号
	UserID          uint           `gorm:"not null;index" json:"user_id"`                               // 申请人用户ID
	Amount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`         // 申请金额
	FeeAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fee_amount"`     // 手续费
	ActualAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"actual_amount"`  // 实际到账金额
	Method          string         `gorm:"type:varchar(32);not null" json:"method"`                     // 收款方式
	AccountInfoJSON JSON           `gorm:"type:json" json:"account_info"`                               // 收款账号信息
	Status          string         `gorm:"type:varchar(32);not null;index" json:"status"`               // 提现状态
	RejectReason    string         `gorm:"type:varchar(255)" json:"reject_reason"`                      // 驳回/失败原因
	ReviewedBy      *uint          `gorm:"index" json:"reviewed_by,omitempty"`                          // 审核人ID
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`                                       // 审核时间
	CompletedAt     *time.Time     `gorm:"index" json:"completed_at,omitempty"`                         // 打款完成时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 申请人
}

// TableName 指定表名
func (Withdrawal) TableName() string {
	return "withdrawals"
}
