package service

import (
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

// normalizeSettingValueByKey 按设置键归一化写入值，未知键原样存储
func normalizeSettingValueByKey(key string, value map[string]interface{}) models.JSON {
	switch key {
	case constants.SettingKeyCommissionConfig:
		return normalizeCommissionSettingMap(value)
	case constants.SettingKeyRefundConfig:
		return normalizeRefundSettingMap(value)
	case constants.SettingKeyWithdrawalConfig:
		return normalizeWithdrawalSettingMap(value)
	case constants.SettingKeyUpgradeConfig:
		return normalizeUpgradeSettingMap(value)
	case constants.SettingKeyOrderConfig:
		return normalizeOrderSettingMap(value)
	default:
		return models.JSON(value)
	}
}
