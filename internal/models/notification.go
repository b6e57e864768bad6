package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification 站内通知表
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`                         // 主键
	RefID     string         `gorm:"type:varchar(64);uniqueIndex" json:"ref_id"`   // 去重引用ID
	UserID    uint           `gorm:"not null;index" json:"user_id"`                // 接收人用户ID
	Type      string         `gorm:"type:varchar(64);not null;index" json:"type"`  // 通知类型
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`      // 标题
	Content   string         `gorm:"type:varchar(1000)" json:"content"`            // 内容
	IsRead    bool           `gorm:"not null;default:false;index" json:"is_read"`  // 是否已读
	ReadAt    *time.Time     `json:"read_at,omitempty"`                            // 已读时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
