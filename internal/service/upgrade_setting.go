package service

import (
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

// UpgradeSetting 角色升级条件配置
//
// 游客购买任意商品即升级会员，不需要配置项。
type UpgradeSetting struct {
	LeaderRefereeCount int `json:"leader_referee_count"` // 会员→团长：直推人数阈值
	AgentOrderCount    int `json:"agent_order_count"`    // 团长→代理：累计完成订单数阈值
}

// UpgradeDefaultSetting 默认角色升级条件
func UpgradeDefaultSetting() UpgradeSetting {
	return UpgradeSetting{
		LeaderRefereeCount: 2,
		AgentOrderCount:    10,
	}
}

// NormalizeUpgradeSetting 归一化角色升级条件
func NormalizeUpgradeSetting(setting UpgradeSetting) UpgradeSetting {
	if setting.LeaderRefereeCount <= 0 {
		setting.LeaderRefereeCount = UpgradeDefaultSetting().LeaderRefereeCount
	}
	if setting.AgentOrderCount <= 0 {
		setting.AgentOrderCount = UpgradeDefaultSetting().AgentOrderCount
	}
	return setting
}

// UpgradeSettingToMap 将角色升级条件转换为 settings 存储结构
func UpgradeSettingToMap(setting UpgradeSetting) map[string]interface{} {
	normalized := NormalizeUpgradeSetting(setting)
	return map[string]interface{}{
		"leader_referee_count": normalized.LeaderRefereeCount,
		"agent_order_count":    normalized.AgentOrderCount,
	}
}

func upgradeSettingFromJSON(raw models.JSON, fallback UpgradeSetting) UpgradeSetting {
	result := fallback
	if countRaw, ok := raw["leader_referee_count"]; ok {
		if parsed, err := parseSettingInt(countRaw); err == nil && parsed > 0 {
			result.LeaderRefereeCount = parsed
		}
	}
	if countRaw, ok := raw["agent_order_count"]; ok {
		if parsed, err := parseSettingInt(countRaw); err == nil && parsed > 0 {
			result.AgentOrderCount = parsed
		}
	}
	return NormalizeUpgradeSetting(result)
}

func normalizeUpgradeSettingMap(value map[string]interface{}) models.JSON {
	setting := upgradeSettingFromJSON(models.JSON(value), UpgradeDefaultSetting())
	return models.JSON(UpgradeSettingToMap(setting))
}

// GetUpgradeSetting 获取角色升级条件（优先 settings，空时回退默认）
func (s *SettingService) GetUpgradeSetting() (UpgradeSetting, error) {
	fallback := UpgradeDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyUpgradeConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return upgradeSettingFromJSON(value, fallback), nil
}

// UpdateUpgradeSetting 更新角色升级条件
func (s *SettingService) UpdateUpgradeSetting(setting UpgradeSetting) (UpgradeSetting, error) {
	normalized := NormalizeUpgradeSetting(setting)
	if _, err := s.Update(constants.SettingKeyUpgradeConfig, UpgradeSettingToMap(normalized)); err != nil {
		return UpgradeDefaultSetting(), err
	}
	return normalized, nil
}
