package provider

import (
	"github.com/fenxiao-next/internal/cache"
	"github.com/fenxiao-next/internal/config"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo        repository.AdminRepository
	UserRepo         repository.UserRepository
	ProductRepo      repository.ProductRepository
	OrderRepo        repository.OrderRepository
	CommissionRepo   repository.CommissionRepository
	RefundRepo       repository.RefundRepository
	WithdrawalRepo   repository.WithdrawalRepository
	NotificationRepo repository.NotificationRepository
	SettingRepo      repository.SettingRepository

	// Services
	AuthService         *service.AuthService
	UserService         *service.UserService
	ProductService      *service.ProductService
	OrderService        *service.OrderService
	CommissionService   *service.CommissionService
	RefundService       *service.RefundService
	WalletService       *service.WalletService
	NotificationService *service.NotificationService
	SettingService      *service.SettingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.RefundRepo = repository.NewRefundRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient)

	c.UserService = service.NewUserService(c.UserRepo, c.CommissionRepo, c.SettingService, c.NotificationService)
	c.AuthService = service.NewAuthService(c.AdminRepo, c.UserRepo, c.UserService, c.Config.JWT)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CommissionService = service.NewCommissionService(c.CommissionRepo, c.OrderRepo, c.UserRepo, c.SettingService, c.NotificationService)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.UserRepo, c.CommissionService, c.UserService, c.SettingService, c.QueueClient, c.NotificationService)
	c.RefundService = service.NewRefundService(c.RefundRepo, c.OrderRepo, c.UserRepo, c.ProductRepo, c.CommissionRepo, c.SettingService, c.NotificationService)
	c.WalletService = service.NewWalletService(c.UserRepo, c.WithdrawalRepo, c.CommissionRepo, c.SettingService, c.NotificationService)
}
