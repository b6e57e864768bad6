package router

import (
	"fmt"
	"strings"

	"github.com/fenxiao-next/internal/cache"
	"github.com/fenxiao-next/internal/config"
	adminhandlers "github.com/fenxiao-next/internal/http/handlers/admin"
	publichandlers "github.com/fenxiao-next/internal/http/handlers/public"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.NewHandler(
		c.AuthService,
		c.UserService,
		c.ProductService,
		c.OrderService,
		c.RefundService,
		c.WalletService,
		c.CommissionService,
		c.NotificationService,
	)
	adminHandler := adminhandlers.NewHandler(
		c.AuthService,
		c.UserService,
		c.ProductService,
		c.OrderService,
		c.RefundService,
		c.WalletService,
		c.CommissionService,
		c.SettingService,
	)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fx"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: 300,
		MaxRequests:   10,
	}
	withdrawalRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:withdrawal", redisPrefix),
		WindowSeconds: 60,
		MaxRequests:   5,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
		}

		// 用户鉴权
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.Login)
		}

		// 用户接口
		user := apiV1.Group("/user")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/profile", publicHandler.Profile)

			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/pay", publicHandler.PayOrder)
			user.POST("/orders/:id/confirm", publicHandler.ConfirmOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)

			user.POST("/refunds", publicHandler.RequestRefund)
			user.GET("/refunds", publicHandler.ListRefunds)
			user.GET("/refunds/:id", publicHandler.GetRefund)

			user.GET("/wallet", publicHandler.WalletOverview)
			user.POST("/wallet/withdrawals",
				RateLimitMiddleware(redisClient, withdrawalRule, KeyByUserID),
				publicHandler.RequestWithdrawal)
			user.GET("/wallet/withdrawals", publicHandler.ListWithdrawals)

			user.POST("/distribution/parent", publicHandler.BindParent)
			user.GET("/distribution/stats", publicHandler.DistributionStats)
			user.GET("/distribution/commissions", publicHandler.ListMyCommissions)

			user.GET("/notifications", publicHandler.ListNotifications)
			user.GET("/notifications/unread", publicHandler.UnreadCount)
			user.POST("/notifications/read", publicHandler.MarkNotificationsRead)
		}

		// 管理端
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Group("")
			authorized.Use(AdminJWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/users", adminHandler.ListUsers)
				authorized.GET("/users/:id", adminHandler.GetUser)
				authorized.GET("/users/:id/distribution", adminHandler.GetUserDistribution)

				authorized.GET("/products", adminHandler.ListProducts)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.GET("/products/:id", adminHandler.GetProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.PUT("/products/:id/active", adminHandler.SetProductActive)

				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/ship", adminHandler.ShipOrder)

				authorized.GET("/commissions", adminHandler.ListCommissions)
				authorized.POST("/commissions/batch-approve", adminHandler.BatchApproveCommissions)
				authorized.POST("/commissions/:id/approve", adminHandler.ApproveCommission)
				authorized.POST("/commissions/:id/cancel", adminHandler.CancelCommission)

				authorized.GET("/refunds", adminHandler.ListRefunds)
				authorized.POST("/refunds/:id/approve", adminHandler.ApproveRefund)
				authorized.POST("/refunds/:id/reject", adminHandler.RejectRefund)
				authorized.POST("/refunds/:id/complete", adminHandler.CompleteRefund)

				authorized.GET("/withdrawals", adminHandler.ListWithdrawals)
				authorized.POST("/withdrawals/:id/review", adminHandler.ReviewWithdrawal)
				authorized.POST("/withdrawals/:id/process", adminHandler.ProcessWithdrawal)
				authorized.POST("/withdrawals/:id/complete", adminHandler.CompleteWithdrawal)
				authorized.POST("/withdrawals/:id/fail", adminHandler.FailWithdrawal)

				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.UpdateSetting)
			}
		}
	}

	return r
}
