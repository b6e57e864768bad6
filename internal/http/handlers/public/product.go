package public

import (
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表（仅在售）
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.ProductListFilter{
		Search:     c.Query("search"),
		OnlyActive: true,
		WithSKUs:   true,
		Page:       page,
		PageSize:   pageSize,
	}
	rows, total, err := h.productService.List(filter)
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
	if !product.IsActive {
		response.NotFound(c, "商品已下架")
		return
	}
	response.Success(c, product)
}
