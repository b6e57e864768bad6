package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-next/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByRefID(refID string) (*models.Notification, error)
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	CountUnread(userID uint) (int64, error)
	MarkRead(userID uint, ids []uint, now time.Time) (int64, error)
}

// GormNotificationRepository GORM 通知仓储
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create 创建通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByRefID 按引用ID查询通知（用于投递去重）
func (r *GormNotificationRepository) GetByRefID(refID string) (*models.Notification, error) {
	normalized := strings.TrimSpace(refID)
	if normalized == "" {
		return nil, nil
	}
	var row models.Notification
	if err := r.db.Where("ref_id = ?", normalized).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询通知列表
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if t := strings.TrimSpace(filter.Type); t != "" {
		query = query.Where("type = ?", t)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Notification
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountUnread 统计未读通知数
func (r *GormNotificationRepository) CountUnread(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// MarkRead 批量标记已读
func (r *GormNotificationRepository) MarkRead(userID uint, ids []uint, now time.Time) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	result := query.Updates(map[string]interface{}{
		"is_read":    true,
		"read_at":    now,
		"updated_at": now,
	})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
