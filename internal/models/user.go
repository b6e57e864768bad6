package models

import (
	"time"

	"gorm.io/gorm"
)

// User 分销用户表
type User struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Phone           string         `gorm:"uniqueIndex;not null" json:"phone"`                          // 手机号
	Nickname        string         `gorm:"default:''" json:"nickname"`                                 // 昵称
	Status          string         `gorm:"default:'active'" json:"status"`                             // 账号状态
	RoleLevel       int            `gorm:"not null;default:0;index" json:"role_level"`                 // 角色等级（0游客/1会员/2团长/3代理）
	ParentID        *uint          `gorm:"index" json:"parent_id,omitempty"`                           // 上级用户ID（绑定后不可变更）
	ParentBoundAt   *time.Time     `json:"parent_bound_at,omitempty"`                                  // 上级绑定时间
	Balance         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`       // 可用余额
	DebtAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"debt_amount"`   // 欠款金额（结算佣金优先抵扣）
	TotalCommission Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_commission"` // 累计结算佣金
	RefereeCount    int            `gorm:"not null;default:0" json:"referee_count"`                    // 直接下级数
	OrderCount      int            `gorm:"not null;default:0" json:"order_count"`                      // 已完成订单数
	TotalSales      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_sales"`   // 累计消费金额
	FirstPurchaseAt *time.Time     `json:"first_purchase_at,omitempty"`                                // 首单支付时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Parent *User `gorm:"foreignKey:ParentID" json:"parent,omitempty"` // 上级用户
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
