package service

import (
	"errors"
	"testing"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

func mustMoney(t *testing.T, value string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(value)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", value, err)
	}
	return m
}

func mustMoneyPtr(t *testing.T, value string) *models.Money {
	t.Helper()
	m := mustMoney(t, value)
	return &m
}

func TestResolveUnitPriceWalkDown(t *testing.T) {
	product := &models.Product{
		RetailPrice:   mustMoney(t, "399.00"),
		MemberPrice:   mustMoneyPtr(t, "339.00"),
		LeaderPrice:   mustMoneyPtr(t, "299.00"),
		WholesaleCost: mustMoney(t, "180.00"),
	}
	pricing := ResolveTierPricing(product, nil)

	cases := []struct {
		roleLevel int
		want      string
	}{
		{constants.RoleGuest, "399.00"},
		{constants.RoleMember, "339.00"},
		{constants.RoleLeader, "299.00"},
		// 代理价未配置，回退团长价
		{constants.RoleAgent, "299.00"},
	}
	for _, tc := range cases {
		price, err := ResolveUnitPrice(pricing, tc.roleLevel)
		if err != nil {
			t.Fatalf("resolve price for role %d failed: %v", tc.roleLevel, err)
		}
		if price.String() != tc.want {
			t.Fatalf("role %d price want %s got %s", tc.roleLevel, tc.want, price.String())
		}
	}
}

func TestResolveTierPricingSKUOverride(t *testing.T) {
	product := &models.Product{
		RetailPrice:   mustMoney(t, "168.00"),
		MemberPrice:   mustMoneyPtr(t, "148.00"),
		WholesaleCost: mustMoney(t, "86.00"),
	}
	sku := &models.ProductSKU{
		RetailPrice:   mustMoneyPtr(t, "288.00"),
		MemberPrice:   mustMoneyPtr(t, "258.00"),
		WholesaleCost: mustMoneyPtr(t, "150.00"),
	}
	pricing := ResolveTierPricing(product, sku)

	if pricing.Retail == nil || pricing.Retail.String() != "288.00" {
		t.Fatalf("expected sku retail override 288.00, got %+v", pricing.Retail)
	}
	if pricing.Member == nil || pricing.Member.String() != "258.00" {
		t.Fatalf("expected sku member override 258.00, got %+v", pricing.Member)
	}
	if pricing.WholesaleCost.String() != "150.00" {
		t.Fatalf("expected sku cost override 150.00, got %s", pricing.WholesaleCost.String())
	}

	// 未覆盖的档位沿用商品价
	pricing = ResolveTierPricing(product, &models.ProductSKU{})
	if pricing.Member == nil || pricing.Member.String() != "148.00" {
		t.Fatalf("expected product member price 148.00, got %+v", pricing.Member)
	}
	if pricing.WholesaleCost.String() != "86.00" {
		t.Fatalf("expected product cost 86.00, got %s", pricing.WholesaleCost.String())
	}
}

func TestResolveUnitPriceNotConfigured(t *testing.T) {
	product := &models.Product{}
	pricing := ResolveTierPricing(product, nil)

	_, err := ResolveUnitPrice(pricing, constants.RoleGuest)
	if !errors.Is(err, ErrPriceNotConfigured) {
		t.Fatalf("expected ErrPriceNotConfigured, got: %v", err)
	}
}
