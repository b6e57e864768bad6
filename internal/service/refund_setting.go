package service

import (
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

const (
	refundMaxDaysMin = 0
	refundMaxDaysMax = 365
)

// RefundSetting 售后配置
//
// MaxRefundDays 必须不大于佣金冻结天数，否则佣金已结算后仍可退款形成坏账；
// 该约束在归一化时不强制，由运营配置时自行保证，结算侧已有欠款兜底。
type RefundSetting struct {
	MaxRefundDays int `json:"max_refund_days"` // 确认收货后可申请售后的天数
}

// RefundDefaultSetting 默认售后配置
func RefundDefaultSetting() RefundSetting {
	return RefundSetting{MaxRefundDays: 15}
}

// NormalizeRefundSetting 归一化售后配置
func NormalizeRefundSetting(setting RefundSetting) RefundSetting {
	if setting.MaxRefundDays < refundMaxDaysMin {
		setting.MaxRefundDays = refundMaxDaysMin
	}
	if setting.MaxRefundDays > refundMaxDaysMax {
		setting.MaxRefundDays = refundMaxDaysMax
	}
	return setting
}

// RefundSettingToMap 将售后配置转换为 settings 存储结构
func RefundSettingToMap(setting RefundSetting) map[string]interface{} {
	normalized := NormalizeRefundSetting(setting)
	return map[string]interface{}{
		"max_refund_days": normalized.MaxRefundDays,
	}
}

func refundSettingFromJSON(raw models.JSON, fallback RefundSetting) RefundSetting {
	result := fallback
	if daysRaw, ok := raw["max_refund_days"]; ok {
		if parsed, err := parseSettingInt(daysRaw); err == nil {
			result.MaxRefundDays = parsed
		}
	}
	return NormalizeRefundSetting(result)
}

func normalizeRefundSettingMap(value map[string]interface{}) models.JSON {
	setting := refundSettingFromJSON(models.JSON(value), RefundDefaultSetting())
	return models.JSON(RefundSettingToMap(setting))
}

// GetRefundSetting 获取售后设置（优先 settings，空时回退默认）
func (s *SettingService) GetRefundSetting() (RefundSetting, error) {
	fallback := RefundDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyRefundConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return refundSettingFromJSON(value, fallback), nil
}

// UpdateRefundSetting 更新售后设置
func (s *SettingService) UpdateRefundSetting(setting RefundSetting) (RefundSetting, error) {
	normalized := NormalizeRefundSetting(setting)
	if _, err := s.Update(constants.SettingKeyRefundConfig, RefundSettingToMap(normalized)); err != nil {
		return RefundDefaultSetting(), err
	}
	return normalized, nil
}
