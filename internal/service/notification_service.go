package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/repository"

	"github.com/google/uuid"
)

// NotificationService 站内通知服务
//
// 通知投递是尽力而为：入队或落库失败只记录日志，绝不回滚调用方的资金事务。
type NotificationService struct {
	repo        repository.NotificationRepository
	queueClient *queue.Client
}

// NewNotificationService 创建站内通知服务
func NewNotificationService(repo repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{repo: repo, queueClient: queueClient}
}

// SendAsync 异步发送通知（业务侧调用入口）
//
// refID 为空时自动生成；相同 refID 的通知只投递一次。
func (s *NotificationService) SendAsync(userID uint, notifyType, title, content, refID string) {
	if s == nil || userID == 0 {
		return
	}
	if strings.TrimSpace(refID) == "" {
		refID = uuid.NewString()
	}
	payload := queue.NotificationDispatchPayload{
		UserID:  userID,
		Type:    notifyType,
		Title:   title,
		Content: content,
		RefID:   refID,
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueNotificationDispatch(payload)
		if err == nil {
			return
		}
		logger.Warnw("notification_enqueue_failed", "user_id", userID, "type", notifyType, "error", err)
	}
	// 队列不可用时降级为同步落库
	if err := s.Dispatch(payload); err != nil {
		logger.Warnw("notification_dispatch_failed", "user_id", userID, "type", notifyType, "error", err)
	}
}

// Dispatch 投递通知（队列消费端与同步降级共用，按 refID 幂等）
func (s *NotificationService) Dispatch(payload queue.NotificationDispatchPayload) error {
	if payload.UserID == 0 {
		return nil
	}
	if existing, err := s.repo.GetByRefID(payload.RefID); err != nil {
		return err
	} else if existing != nil {
		return nil
	}
	return s.repo.Create(&models.Notification{
		RefID:   payload.RefID,
		UserID:  payload.UserID,
		Type:    payload.Type,
		Title:   payload.Title,
		Content: payload.Content,
	})
}

// List 查询通知列表
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	return s.repo.List(filter)
}

// CountUnread 统计未读数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

// MarkRead 标记已读，ids 为空时全量已读
func (s *NotificationService) MarkRead(userID uint, ids []uint) (int64, error) {
	if userID == 0 {
		return 0, fmt.Errorf("%w: 用户", ErrNotFound)
	}
	return s.repo.MarkRead(userID, ids, time.Now())
}
