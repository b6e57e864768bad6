package admin

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表（含下架）
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.productService.List(repository.ProductListFilter{
		Search:   c.Query("search"),
		WithSKUs: true,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, buildPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	if err := h.productService.Create(&product); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	product.ID = id
	if err := h.productService.Update(&product); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetProductActive 上下架商品
func (h *Handler) SetProductActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	if err := h.productService.SetActive(id, req.IsActive); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "操作成功", nil)
}
