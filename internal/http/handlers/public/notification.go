package public

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListNotifications 我的通知列表
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.notifier.List(repository.NotificationListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}

// UnreadCount 未读通知数
func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	count, err := h.notifier.CountUnread(userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

type markReadRequest struct {
	IDs []uint `json:"ids"`
}

// MarkNotificationsRead 标记通知已读，ids 为空时全量已读
func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	var req markReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "请求参数错误")
			return
		}
	}
	updated, err := h.notifier.MarkRead(userID, req.IDs)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}
