package service

import (
	"fmt"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

// TierPricing 分级价格快照（商品价兜底 + SKU 覆盖合并后的结果）
type TierPricing struct {
	Retail        *models.Money
	Member        *models.Money
	Leader        *models.Money
	Agent         *models.Money
	WholesaleCost models.Money
}

// ResolveTierPricing 合并商品与 SKU 的分级价格
func ResolveTierPricing(product *models.Product, sku *models.ProductSKU) TierPricing {
	pricing := TierPricing{WholesaleCost: product.WholesaleCost}
	retail := product.RetailPrice
	pricing.Retail = &retail
	pricing.Member = product.MemberPrice
	pricing.Leader = product.LeaderPrice
	pricing.Agent = product.AgentPrice

	if sku != nil {
		if sku.RetailPrice != nil {
			pricing.Retail = sku.RetailPrice
		}
		if sku.MemberPrice != nil {
			pricing.Member = sku.MemberPrice
		}
		if sku.LeaderPrice != nil {
			pricing.Leader = sku.LeaderPrice
		}
		if sku.AgentPrice != nil {
			pricing.Agent = sku.AgentPrice
		}
		if sku.WholesaleCost != nil {
			pricing.WholesaleCost = *sku.WholesaleCost
		}
	}
	return pricing
}

// ResolveUnitPrice 按买家角色解析成交单价
//
// 从买家自身档位向下回退到零售价，取第一个已配置的正价格。
// 全部档位缺失属于配置错误，下单必须失败。
func ResolveUnitPrice(pricing TierPricing, roleLevel int) (models.Money, error) {
	tiers := []*models.Money{}
	switch {
	case roleLevel >= constants.RoleAgent:
		tiers = append(tiers, pricing.Agent, pricing.Leader, pricing.Member, pricing.Retail)
	case roleLevel == constants.RoleLeader:
		tiers = append(tiers, pricing.Leader, pricing.Member, pricing.Retail)
	case roleLevel == constants.RoleMember:
		tiers = append(tiers, pricing.Member, pricing.Retail)
	default:
		tiers = append(tiers, pricing.Retail)
	}

	for _, tier := range tiers {
		if tier != nil && tier.Decimal.IsPositive() {
			return *tier, nil
		}
	}
	return models.Money{}, fmt.Errorf("%w: 角色等级 %d 无可用价格档位", ErrPriceNotConfigured, roleLevel)
}
