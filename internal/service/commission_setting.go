package service

import (
	"math"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
)

const (
	commissionRateMin       = 0
	commissionRateMax       = 100
	commissionFreezeDaysMin = 0
	commissionFreezeDaysMax = 3650
)

// CommissionSetting 佣金配置
//
// 固定额模式从剩余利润池中按顺序消费：买家自购奖励 → 上级团队奖励 →
// 祖级减半团队奖励；百分比模式按实付金额乘以各角色比例，同样受利润池约束。
type CommissionSetting struct {
	Mode                string  `json:"mode"`                  // fixed / percent
	FreezeDays          int     `json:"freeze_days"`           // 佣金冻结天数（退款保护期）
	MemberSelfBonus     float64 `json:"member_self_bonus"`     // 固定额：会员买家自购奖励
	LeaderSelfBonus     float64 `json:"leader_self_bonus"`     // 固定额：团长买家自购奖励
	AgentSelfBonus      float64 `json:"agent_self_bonus"`      // 固定额：代理买家自购奖励
	TeamBonus           float64 `json:"team_bonus"`            // 固定额：直接上级团队奖励（祖级按一半计）
	SelfRatePercent     float64 `json:"self_rate_percent"`     // 百分比：自购返利比例
	DirectRatePercent   float64 `json:"direct_rate_percent"`   // 百分比：直推比例
	IndirectRatePercent float64 `json:"indirect_rate_percent"` // 百分比：间推比例
}

// CommissionDefaultSetting 默认佣金配置
func CommissionDefaultSetting() CommissionSetting {
	return CommissionSetting{
		Mode:                constants.CommissionModeFixed,
		FreezeDays:          15,
		MemberSelfBonus:     60,
		LeaderSelfBonus:     90,
		AgentSelfBonus:      0,
		TeamBonus:           30,
		SelfRatePercent:     5,
		DirectRatePercent:   10,
		IndirectRatePercent: 5,
	}
}

// NormalizeCommissionSetting 归一化佣金配置
func NormalizeCommissionSetting(setting CommissionSetting) CommissionSetting {
	if setting.Mode != constants.CommissionModePercent {
		setting.Mode = constants.CommissionModeFixed
	}
	if setting.FreezeDays < commissionFreezeDaysMin {
		setting.FreezeDays = commissionFreezeDaysMin
	}
	if setting.FreezeDays > commissionFreezeDaysMax {
		setting.FreezeDays = commissionFreezeDaysMax
	}
	setting.MemberSelfBonus = clampNonNegative(roundSettingAmount(setting.MemberSelfBonus))
	setting.LeaderSelfBonus = clampNonNegative(roundSettingAmount(setting.LeaderSelfBonus))
	setting.AgentSelfBonus = clampNonNegative(roundSettingAmount(setting.AgentSelfBonus))
	setting.TeamBonus = clampNonNegative(roundSettingAmount(setting.TeamBonus))
	setting.SelfRatePercent = clampRate(setting.SelfRatePercent)
	setting.DirectRatePercent = clampRate(setting.DirectRatePercent)
	setting.IndirectRatePercent = clampRate(setting.IndirectRatePercent)
	return setting
}

// SelfBonusForRole 固定额模式下买家角色对应的自购奖励
func (c CommissionSetting) SelfBonusForRole(roleLevel int) float64 {
	switch roleLevel {
	case constants.RoleMember:
		return c.MemberSelfBonus
	case constants.RoleLeader:
		return c.LeaderSelfBonus
	case constants.RoleAgent:
		return c.AgentSelfBonus
	default:
		return 0
	}
}

// CommissionSettingToMap 将佣金配置转换为 settings 存储结构
func CommissionSettingToMap(setting CommissionSetting) map[string]interface{} {
	normalized := NormalizeCommissionSetting(setting)
	return map[string]interface{}{
		"mode":                  normalized.Mode,
		"freeze_days":           normalized.FreezeDays,
		"member_self_bonus":     normalized.MemberSelfBonus,
		"leader_self_bonus":     normalized.LeaderSelfBonus,
		"agent_self_bonus":      normalized.AgentSelfBonus,
		"team_bonus":            normalized.TeamBonus,
		"self_rate_percent":     normalized.SelfRatePercent,
		"direct_rate_percent":   normalized.DirectRatePercent,
		"indirect_rate_percent": normalized.IndirectRatePercent,
	}
}

func commissionSettingFromJSON(raw models.JSON, fallback CommissionSetting) CommissionSetting {
	result := fallback

	if modeRaw, ok := raw["mode"]; ok {
		if mode := parseSettingString(modeRaw); mode != "" {
			result.Mode = mode
		}
	}
	if daysRaw, ok := raw["freeze_days"]; ok {
		if parsed, err := parseSettingInt(daysRaw); err == nil {
			result.FreezeDays = parsed
		}
	}
	floatFields := map[string]*float64{
		"member_self_bonus":     &result.MemberSelfBonus,
		"leader_self_bonus":     &result.LeaderSelfBonus,
		"agent_self_bonus":      &result.AgentSelfBonus,
		"team_bonus":            &result.TeamBonus,
		"self_rate_percent":     &result.SelfRatePercent,
		"direct_rate_percent":   &result.DirectRatePercent,
		"indirect_rate_percent": &result.IndirectRatePercent,
	}
	for key, target := range floatFields {
		if valueRaw, ok := raw[key]; ok {
			if parsed, err := parseSettingFloat(valueRaw); err == nil {
				*target = parsed
			}
		}
	}

	return NormalizeCommissionSetting(result)
}

func normalizeCommissionSettingMap(value map[string]interface{}) models.JSON {
	setting := commissionSettingFromJSON(models.JSON(value), CommissionDefaultSetting())
	return models.JSON(CommissionSettingToMap(setting))
}

// GetCommissionSetting 获取佣金设置（优先 settings，空时回退默认）
func (s *SettingService) GetCommissionSetting() (CommissionSetting, error) {
	fallback := CommissionDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyCommissionConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return commissionSettingFromJSON(value, fallback), nil
}

// UpdateCommissionSetting 更新佣金设置
func (s *SettingService) UpdateCommissionSetting(setting CommissionSetting) (CommissionSetting, error) {
	normalized := NormalizeCommissionSetting(setting)
	if _, err := s.Update(constants.SettingKeyCommissionConfig, CommissionSettingToMap(normalized)); err != nil {
		return CommissionDefaultSetting(), err
	}
	return normalized, nil
}

func roundSettingAmount(value float64) float64 {
	return math.Round(value*100) / 100
}

func clampNonNegative(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

func clampRate(value float64) float64 {
	value = roundSettingAmount(value)
	if value < commissionRateMin {
		return commissionRateMin
	}
	if value > commissionRateMax {
		return commissionRateMax
	}
	return value
}
