package service

import (
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

// OrderSetting 订单时限配置
type OrderSetting struct {
	AutoCancelMinutes int `json:"auto_cancel_minutes"` // 未支付自动取消时间（分钟）
	AutoConfirmDays   int `json:"auto_confirm_days"`   // 发货后自动确认收货天数
}

// OrderDefaultSetting 默认订单时限配置
func OrderDefaultSetting() OrderSetting {
	return OrderSetting{
		AutoCancelMinutes: 30,
		AutoConfirmDays:   15,
	}
}

// NormalizeOrderSetting 归一化订单时限配置
func NormalizeOrderSetting(setting OrderSetting) OrderSetting {
	if setting.AutoCancelMinutes <= 0 {
		setting.AutoCancelMinutes = OrderDefaultSetting().AutoCancelMinutes
	}
	if setting.AutoConfirmDays <= 0 {
		setting.AutoConfirmDays = OrderDefaultSetting().AutoConfirmDays
	}
	return setting
}

// OrderSettingToMap 将订单时限配置转换为 settings 存储结构
func OrderSettingToMap(setting OrderSetting) map[string]interface{} {
	normalized := NormalizeOrderSetting(setting)
	return map[string]interface{}{
		"auto_cancel_minutes": normalized.AutoCancelMinutes,
		"auto_confirm_days":   normalized.AutoConfirmDays,
	}
}

func orderSettingFromJSON(raw models.JSON, fallback OrderSetting) OrderSetting {
	result := fallback
	if minutesRaw, ok := raw["auto_cancel_minutes"]; ok {
		if parsed, err := parseSettingInt(minutesRaw); err == nil && parsed > 0 {
			result.AutoCancelMinutes = parsed
		}
	}
	if daysRaw, ok := raw["auto_confirm_days"]; ok {
		if parsed, err := parseSettingInt(daysRaw); err == nil && parsed > 0 {
			result.AutoConfirmDays = parsed
		}
	}
	return NormalizeOrderSetting(result)
}

func normalizeOrderSettingMap(value map[string]interface{}) models.JSON {
	setting := orderSettingFromJSON(models.JSON(value), OrderDefaultSetting())
	return models.JSON(OrderSettingToMap(setting))
}

// GetOrderSetting 获取订单时限设置（优先 settings，空时回退默认）
func (s *SettingService) GetOrderSetting() (OrderSetting, error) {
	fallback := OrderDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyOrderConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return orderSettingFromJSON(value, fallback), nil
}

// UpdateOrderSetting 更新订单时限设置
func (s *SettingService) UpdateOrderSetting(setting OrderSetting) (OrderSetting, error) {
	normalized := NormalizeOrderSetting(setting)
	if _, err := s.Update(constants.SettingKeyOrderConfig, OrderSettingToMap(normalized)); err != nil {
		return OrderDefaultSetting(), err
	}
	return normalized, nil
}
