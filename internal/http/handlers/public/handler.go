package public

import (
	"strconv"

	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 用户端处理器集合
type Handler struct {
	authService    *service.AuthService
	userService    *service.UserService
	productService *service.ProductService
	orderService   *service.OrderService
	refundService  *service.RefundService
	walletService  *service.WalletService
	commissionSvc  *service.CommissionService
	notifier       *service.NotificationService
}

// NewHandler 创建用户端处理器
func NewHandler(
	authService *service.AuthService,
	userService *service.UserService,
	productService *service.ProductService,
	orderService *service.OrderService,
	refundService *service.RefundService,
	walletService *service.WalletService,
	commissionSvc *service.CommissionService,
	notifier *service.NotificationService,
) *Handler {
	return &Handler{
		authService:    authService,
		userService:    userService,
		productService: productService,
		orderService:   orderService,
		refundService:  refundService,
		walletService:  walletService,
		commissionSvc:  commissionSvc,
		notifier:       notifier,
	}
}

func parsePageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的 ID 参数")
		return 0, false
	}
	return uint(id), true
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPage++
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
