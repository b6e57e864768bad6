package service

import (
	"testing"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

func fixedCommissionInput(t *testing.T, total, cost string) CommissionInput {
	t.Helper()
	return CommissionInput{
		Order: &models.Order{
			ID:              1,
			UserID:          10,
			TotalAmount:     mustMoney(t, total),
			LockedAgentCost: mustMoney(t, cost),
		},
		Buyer:       &models.User{ID: 10, RoleLevel: constants.RoleMember},
		Parent:      &models.User{ID: 20, RoleLevel: constants.RoleLeader},
		Grandparent: &models.User{ID: 30, RoleLevel: constants.RoleAgent},
		Setting:     CommissionDefaultSetting(),
	}
}

func findEntry(entries []CommissionEntry, ctype string) *CommissionEntry {
	for i := range entries {
		if entries[i].CommissionType == ctype {
			return &entries[i]
		}
	}
	return nil
}

func TestCalculateCommissionFixedFullChain(t *testing.T) {
	// 利润池 399 - 249 = 150：会员自购 60 + 直推 30 + 间推 15，剩余 45
	result := CalculateCommission(fixedCommissionInput(t, "399.00", "249.00"))

	if len(result.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(result.Entries))
	}
	if result.Clipped {
		t.Fatalf("expected no clipping")
	}

	self := findEntry(result.Entries, constants.CommissionTypeSelf)
	if self == nil || self.UserID != 10 || self.Amount.String() != "60.00" || self.Level != 0 {
		t.Fatalf("unexpected self entry: %+v", self)
	}
	direct := findEntry(result.Entries, constants.CommissionTypeDirect)
	if direct == nil || direct.UserID != 20 || direct.Amount.String() != "30.00" || direct.Level != 1 {
		t.Fatalf("unexpected direct entry: %+v", direct)
	}
	indirect := findEntry(result.Entries, constants.CommissionTypeIndirect)
	if indirect == nil || indirect.UserID != 30 || indirect.Amount.String() != "15.00" || indirect.Level != 2 {
		t.Fatalf("unexpected indirect entry: %+v", indirect)
	}
	if result.AgentProfit.String() != "45.00" {
		t.Fatalf("agent profit want 45.00 got %s", result.AgentProfit.String())
	}
}

func TestCalculateCommissionFixedClipsToPool(t *testing.T) {
	// 利润池只剩 70：自购 60 足额，直推被裁剪到 10，间推无额度
	result := CalculateCommission(fixedCommissionInput(t, "250.00", "180.00"))

	if !result.Clipped {
		t.Fatalf("expected clipped result")
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	direct := findEntry(result.Entries, constants.CommissionTypeDirect)
	if direct == nil || direct.Amount.String() != "10.00" {
		t.Fatalf("expected direct clipped to 10.00, got %+v", direct)
	}
	if !result.AgentProfit.Decimal.IsZero() {
		t.Fatalf("agent profit want 0 got %s", result.AgentProfit.String())
	}
}

func TestCalculateCommissionNegativePool(t *testing.T) {
	// 实付低于锁定成本：池按 0 计，不产生任何负数佣金
	result := CalculateCommission(fixedCommissionInput(t, "100.00", "150.00"))

	if len(result.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(result.Entries))
	}
	if !result.AgentProfit.Decimal.IsZero() {
		t.Fatalf("agent profit want 0 got %s", result.AgentProfit.String())
	}
}

func TestCalculateCommissionAgentBuyerNoSelfBonus(t *testing.T) {
	input := fixedCommissionInput(t, "399.00", "249.00")
	input.Buyer.RoleLevel = constants.RoleAgent

	result := CalculateCommission(input)
	if findEntry(result.Entries, constants.CommissionTypeSelf) != nil {
		t.Fatalf("agent buyer should not earn self bonus")
	}
	if direct := findEntry(result.Entries, constants.CommissionTypeDirect); direct == nil {
		t.Fatalf("expected direct entry for parent")
	}
}

func TestCalculateCommissionMissingUpline(t *testing.T) {
	input := fixedCommissionInput(t, "399.00", "249.00")
	input.Parent = nil
	input.Grandparent = nil

	result := CalculateCommission(input)
	if len(result.Entries) != 1 {
		t.Fatalf("expected only self entry, got %d", len(result.Entries))
	}
	if result.AgentProfit.String() != "90.00" {
		t.Fatalf("agent profit want 90.00 got %s", result.AgentProfit.String())
	}
}

func TestCalculateCommissionPercentMode(t *testing.T) {
	input := fixedCommissionInput(t, "200.00", "80.00")
	input.Setting.Mode = constants.CommissionModePercent
	input.Setting.SelfRatePercent = 5
	input.Setting.DirectRatePercent = 10
	input.Setting.IndirectRatePercent = 5

	result := CalculateCommission(input)
	if len(result.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(result.Entries))
	}
	self := findEntry(result.Entries, constants.CommissionTypeSelf)
	if self == nil || self.Amount.String() != "10.00" || self.RatePercent.String() != "5.00" {
		t.Fatalf("unexpected self entry: %+v", self)
	}
	direct := findEntry(result.Entries, constants.CommissionTypeDirect)
	if direct == nil || direct.Amount.String() != "20.00" {
		t.Fatalf("unexpected direct entry: %+v", direct)
	}
	if result.AgentProfit.String() != "80.00" {
		t.Fatalf("agent profit want 80.00 got %s", result.AgentProfit.String())
	}
}

func TestCalculateCommissionPercentModeClipped(t *testing.T) {
	input := fixedCommissionInput(t, "200.00", "175.00")
	input.Setting.Mode = constants.CommissionModePercent
	input.Setting.SelfRatePercent = 5
	input.Setting.DirectRatePercent = 10
	input.Setting.IndirectRatePercent = 5

	// 池 25：自购 10 足额，直推 20 裁剪到 15，间推无额度
	result := CalculateCommission(input)
	if !result.Clipped {
		t.Fatalf("expected clipped result")
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	direct := findEntry(result.Entries, constants.CommissionTypeDirect)
	if direct == nil || direct.Amount.String() != "15.00" {
		t.Fatalf("expected direct clipped to 15.00, got %+v", direct)
	}
}
