package admin

import (
	"strconv"

	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	rows, total, err := h.orderService.List(repository.OrderListFilter{
		UserID:   uint(userID),
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(orderID, 0)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

type shipOrderRequest struct {
	FulfillerID *uint `json:"fulfiller_id"`
}

// ShipOrder 发货并生成冻结佣金
func (h *Handler) ShipOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req shipOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "请求参数错误")
			return
		}
	}
	order, err := h.orderService.Ship(orderID, req.FulfillerID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
