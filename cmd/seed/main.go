package main

import (
	"time"

	"github.com/fenxiao-next/internal/config"
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 三级分销链示例用户：代理 → 团长 → 会员
	now := time.Now()
	agent := seedUser(stdLog, models.User{
		Phone:     "13800000001",
		Nickname:  "示例代理",
		Status:    constants.UserStatusActive,
		RoleLevel: constants.RoleAgent,
	})
	leader := seedUser(stdLog, models.User{
		Phone:         "13800000002",
		Nickname:      "示例团长",
		Status:        constants.UserStatusActive,
		RoleLevel:     constants.RoleLeader,
		ParentID:      idPtr(agent),
		ParentBoundAt: &now,
	})
	seedUser(stdLog, models.User{
		Phone:         "13800000003",
		Nickname:      "示例会员",
		Status:        constants.UserStatusActive,
		RoleLevel:     constants.RoleMember,
		ParentID:      idPtr(leader),
		ParentBoundAt: &now,
	})

	// 示例商品（含分级价格）
	products := []models.Product{
		{
			Name:          "精品礼盒装铁观音",
			Description:   "一级铁观音 250g 礼盒装，适合送礼自饮。",
			RetailPrice:   money("399.00"),
			MemberPrice:   moneyPtr("339.00"),
			LeaderPrice:   moneyPtr("299.00"),
			AgentPrice:    moneyPtr("259.00"),
			WholesaleCost: money("180.00"),
			Stock:         500,
			IsActive:      true,
			SortOrder:     100,
		},
		{
			Name:          "有机山茶油 500ml",
			Description:   "低温冷榨山茶油，家庭装。",
			RetailPrice:   money("168.00"),
			MemberPrice:   moneyPtr("148.00"),
			LeaderPrice:   moneyPtr("128.00"),
			WholesaleCost: money("86.00"),
			Stock:         1000,
			IsActive:      true,
			SortOrder:     90,
			SKUs: []models.ProductSKU{
				{
					SKUCode:        "OIL-500",
					SpecValuesJSON: models.JSON(map[string]interface{}{"规格": "500ml"}),
					Stock:          600,
					IsActive:       true,
					SortOrder:      10,
				},
				{
					SKUCode:        "OIL-1000",
					SpecValuesJSON: models.JSON(map[string]interface{}{"规格": "1000ml"}),
					RetailPrice:    moneyPtr("288.00"),
					MemberPrice:    moneyPtr("258.00"),
					LeaderPrice:    moneyPtr("228.00"),
					WholesaleCost:  moneyPtr("150.00"),
					Stock:          400,
					IsActive:       true,
					SortOrder:      20,
				},
			},
		},
		{
			Name:          "手工黑糖姜茶 20 条装",
			Description:   "古法熬制，独立小包装。",
			RetailPrice:   money("59.90"),
			MemberPrice:   moneyPtr("49.90"),
			WholesaleCost: money("26.00"),
			Stock:         2000,
			IsActive:      true,
			SortOrder:     80,
		},
	}
	for i := range products {
		product := products[i]
		var existing models.Product
		if err := models.DB.Where("name = ?", product.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Name, err)
			} else {
				stdLog.Printf("Created product: %s", product.Name)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Name)
		}
	}

	stdLog.Printf("Seed finished")
}

func seedUser(stdLog interface{ Printf(string, ...interface{}) }, user models.User) uint {
	var existing models.User
	if err := models.DB.Where("phone = ?", user.Phone).First(&existing).Error; err == nil {
		stdLog.Printf("User already exists: %s", user.Phone)
		return existing.ID
	}
	if err := models.DB.Create(&user).Error; err != nil {
		stdLog.Printf("Failed to create user %s: %v", user.Phone, err)
		return 0
	}
	stdLog.Printf("Created user: %s", user.Phone)
	return user.ID
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func money(value string) models.Money {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return models.MoneyZero()
	}
	return models.NewMoneyFromDecimal(d)
}

func moneyPtr(value string) *models.Money {
	m := money(value)
	return &m
}
