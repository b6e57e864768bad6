package public

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	SKUID     *uint `json:"sku_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrder 下单
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	order, err := h.orderService.Create(service.CreateOrderInput{
		UserID:    userID,
		ProductID: req.ProductID,
		SKUID:     req.SKUID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// PayOrder 支付订单
func (h *Handler) PayOrder(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Pay(orderID, userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ConfirmOrder 确认收货
func (h *Handler) ConfirmOrder(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Complete(orderID, userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消待支付订单
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Cancel(orderID, userID, "用户取消")
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(orderID, userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := shared.UserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.orderService.List(repository.OrderListFilter{
		UserID:   userID,
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}
