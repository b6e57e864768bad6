package service

import (
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"

	"github.com/shopspring/decimal"
)

// CommissionInput 佣金计算输入
//
// 固定的输入契约：订单、买家、至多两级上级；由调用方解析好分销链。
type CommissionInput struct {
	Order       *models.Order
	Buyer       *models.User
	Parent      *models.User
	Grandparent *models.User
	Setting     CommissionSetting
}

// CommissionEntry 单条佣金分配结果
type CommissionEntry struct {
	UserID         uint
	CommissionType string
	Level          int
	BaseAmount     models.Money
	RatePercent    models.Money
	Amount         models.Money
}

// CommissionResult 佣金计算输出
type CommissionResult struct {
	Entries     []CommissionEntry
	AgentProfit models.Money
	Clipped     bool
}

// commissionPlan 分配策略，按配置的 mode 选择实现
type commissionPlan interface {
	Allocate(input CommissionInput, pool decimal.Decimal) ([]CommissionEntry, decimal.Decimal, bool)
}

// CalculateCommission 计算订单佣金分配
//
// 利润池 = 实付金额 − 锁定供货成本。任何受益人不产生负数佣金；
// 配置超分时裁剪到池内并告警，绝不因佣金配置错误使发货失败。
func CalculateCommission(input CommissionInput) CommissionResult {
	pool := input.Order.TotalAmount.Decimal.Sub(input.Order.LockedAgentCost.Decimal)
	if pool.IsNegative() {
		logger.Warnw("commission_pool_negative",
			"order_id", input.Order.ID,
			"total_amount", input.Order.TotalAmount.String(),
			"locked_agent_cost", input.Order.LockedAgentCost.String(),
		)
		pool = decimal.Zero
	}

	var plan commissionPlan
	if input.Setting.Mode == constants.CommissionModePercent {
		plan = percentagePlan{}
	} else {
		plan = fixedAmountPlan{}
	}

	entries, remaining, clipped := plan.Allocate(input, pool)
	if clipped {
		logger.Warnw("commission_pool_clipped",
			"order_id", input.Order.ID,
			"mode", input.Setting.Mode,
			"pool", pool.Round(2).StringFixed(2),
		)
	}

	return CommissionResult{
		Entries:     entries,
		AgentProfit: models.NewMoneyFromDecimal(remaining),
		Clipped:     clipped,
	}
}

// fixedAmountPlan 固定额模式：按顺序从剩余利润池中消费固定奖励
type fixedAmountPlan struct{}

// Allocate 买家自购奖励 → 上级团队奖励 → 祖级减半团队奖励
func (fixedAmountPlan) Allocate(input CommissionInput, pool decimal.Decimal) ([]CommissionEntry, decimal.Decimal, bool) {
	remaining := pool
	clipped := false
	entries := make([]CommissionEntry, 0, 3)

	appendEntry := func(userID uint, ctype string, level int, want decimal.Decimal) {
		if userID == 0 || !want.IsPositive() {
			return
		}
		amount := want.Round(2)
		if amount.GreaterThan(remaining) {
			amount = remaining.Round(2)
			clipped = true
		}
		if !amount.IsPositive() {
			return
		}
		entries = append(entries, CommissionEntry{
			UserID:         userID,
			CommissionType: ctype,
			Level:          level,
			BaseAmount:     input.Order.TotalAmount,
			Amount:         models.NewMoneyFromDecimal(amount),
		})
		remaining = remaining.Sub(amount)
	}

	appendEntry(input.Buyer.ID, constants.CommissionTypeSelf, 0,
		decimal.NewFromFloat(input.Setting.SelfBonusForRole(input.Buyer.RoleLevel)))
	if input.Parent != nil {
		appendEntry(input.Parent.ID, constants.CommissionTypeDirect, 1,
			decimal.NewFromFloat(input.Setting.TeamBonus))
	}
	if input.Grandparent != nil {
		half := decimal.NewFromFloat(input.Setting.TeamBonus).Div(decimal.NewFromInt(2))
		appendEntry(input.Grandparent.ID, constants.CommissionTypeIndirect, 2, half)
	}

	return entries, remaining.Round(2), clipped
}

// percentagePlan 百分比模式：实付金额 × 各角色比例，按自购/直推/间推优先级裁剪
type percentagePlan struct{}

// Allocate 自购返利 → 直推 → 间推，逐条受剩余利润池约束
func (percentagePlan) Allocate(input CommissionInput, pool decimal.Decimal) ([]CommissionEntry, decimal.Decimal, bool) {
	remaining := pool
	clipped := false
	entries := make([]CommissionEntry, 0, 3)
	base := input.Order.TotalAmount.Decimal
	hundred := decimal.NewFromInt(100)

	appendEntry := func(userID uint, ctype string, level int, ratePercent float64) {
		if userID == 0 || ratePercent <= 0 {
			return
		}
		rate := decimal.NewFromFloat(ratePercent)
		amount := base.Mul(rate).Div(hundred).Round(2)
		if !amount.IsPositive() {
			return
		}
		if amount.GreaterThan(remaining) {
			amount = remaining.Round(2)
			clipped = true
		}
		if !amount.IsPositive() {
			return
		}
		entries = append(entries, CommissionEntry{
			UserID:         userID,
			CommissionType: ctype,
			Level:          level,
			BaseAmount:     models.NewMoneyFromDecimal(base),
			RatePercent:    models.NewMoneyFromDecimal(rate),
			Amount:         models.NewMoneyFromDecimal(amount),
		})
		remaining = remaining.Sub(amount)
	}

	appendEntry(input.Buyer.ID, constants.CommissionTypeSelf, 0, input.Setting.SelfRatePercent)
	if input.Parent != nil {
		appendEntry(input.Parent.ID, constants.CommissionTypeDirect, 1, input.Setting.DirectRatePercent)
	}
	if input.Grandparent != nil {
		appendEntry(input.Grandparent.ID, constants.CommissionTypeIndirect, 2, input.Setting.IndirectRatePercent)
	}

	return entries, remaining.Round(2), clipped
}
