package service

import (
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

const (
	withdrawalFeeRateMin = 0
	withdrawalFeeRateMax = 1
)

// WithdrawalSetting 提现配置
type WithdrawalSetting struct {
	MinAmount       float64 `json:"min_amount"`        // 最低单笔提现金额
	MaxSingleAmount float64 `json:"max_single_amount"` // 最高单笔提现金额
	MaxDailyCount   int     `json:"max_daily_count"`   // 单日最大提现次数
	FeeRate         float64 `json:"fee_rate"`          // 手续费比例（0.006 = 0.6%）
}

// WithdrawalDefaultSetting 默认提现配置
func WithdrawalDefaultSetting() WithdrawalSetting {
	return WithdrawalSetting{
		MinAmount:       10,
		MaxSingleAmount: 50000,
		MaxDailyCount:   3,
		FeeRate:         0,
	}
}

// NormalizeWithdrawalSetting 归一化提现配置
func NormalizeWithdrawalSetting(setting WithdrawalSetting) WithdrawalSetting {
	setting.MinAmount = clampNonNegative(roundSettingAmount(setting.MinAmount))
	setting.MaxSingleAmount = clampNonNegative(roundSettingAmount(setting.MaxSingleAmount))
	if setting.MaxSingleAmount > 0 && setting.MaxSingleAmount < setting.MinAmount {
		setting.MaxSingleAmount = setting.MinAmount
	}
	if setting.MaxDailyCount < 0 {
		setting.MaxDailyCount = 0
	}
	if setting.FeeRate < withdrawalFeeRateMin {
		setting.FeeRate = withdrawalFeeRateMin
	}
	if setting.FeeRate > withdrawalFeeRateMax {
		setting.FeeRate = withdrawalFeeRateMax
	}
	return setting
}

// WithdrawalSettingToMap 将提现配置转换为 settings 存储结构
func WithdrawalSettingToMap(setting WithdrawalSetting) map[string]interface{} {
	normalized := NormalizeWithdrawalSetting(setting)
	return map[string]interface{}{
		"min_amount":        normalized.MinAmount,
		"max_single_amount": normalized.MaxSingleAmount,
		"max_daily_count":   normalized.MaxDailyCount,
		"fee_rate":          normalized.FeeRate,
	}
}

func withdrawalSettingFromJSON(raw models.JSON, fallback WithdrawalSetting) WithdrawalSetting {
	result := fallback

	if minRaw, ok := raw["min_amount"]; ok {
		if parsed, err := parseSettingFloat(minRaw); err == nil {
			result.MinAmount = parsed
		}
	}
	if maxRaw, ok := raw["max_single_amount"]; ok {
		if parsed, err := parseSettingFloat(maxRaw); err == nil {
			result.MaxSingleAmount = parsed
		}
	}
	if countRaw, ok := raw["max_daily_count"]; ok {
		if parsed, err := parseSettingInt(countRaw); err == nil {
			result.MaxDailyCount = parsed
		}
	}
	if feeRaw, ok := raw["fee_rate"]; ok {
		if parsed, err := parseSettingFloat(feeRaw); err == nil {
			result.FeeRate = parsed
		}
	}

	return NormalizeWithdrawalSetting(result)
}

func normalizeWithdrawalSettingMap(value map[string]interface{}) models.JSON {
	setting := withdrawalSettingFromJSON(models.JSON(value), WithdrawalDefaultSetting())
	return models.JSON(WithdrawalSettingToMap(setting))
}

// GetWithdrawalSetting 获取提现设置（优先 settings，空时回退默认）
func (s *SettingService) GetWithdrawalSetting() (WithdrawalSetting, error) {
	fallback := WithdrawalDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyWithdrawalConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return withdrawalSettingFromJSON(value, fallback), nil
}

// UpdateWithdrawalSetting 更新提现设置
func (s *SettingService) UpdateWithdrawalSetting(setting WithdrawalSetting) (WithdrawalSetting, error) {
	normalized := NormalizeWithdrawalSetting(setting)
	if _, err := s.Update(constants.SettingKeyWithdrawalConfig, WithdrawalSettingToMap(normalized)); err != nil {
		return WithdrawalDefaultSetting(), err
	}
	return normalized, nil
}
