package admin

import (
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/http/handlers/shared"
	"github.com/fenxiao-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

var settingKeys = map[string]bool{
	constants.SettingKeyCommissionConfig: true,
	constants.SettingKeyRefundConfig:     true,
	constants.SettingKeyWithdrawalConfig: true,
	constants.SettingKeyUpgradeConfig:    true,
	constants.SettingKeyOrderConfig:      true,
}

// GetSetting 查询配置
func (h *Handler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	if !settingKeys[key] {
		response.BadRequest(c, "不支持的配置项")
		return
	}
	value, err := h.settingService.GetByKey(key)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"key":   key,
		"value": value,
	})
}

// UpdateSetting 更新配置
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")
	if !settingKeys[key] {
		response.BadRequest(c, "不支持的配置项")
		return
	}
	var value map[string]interface{}
	if err := c.ShouldBindJSON(&value); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}
	updated, err := h.settingService.Update(key, value)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"key":   key,
		"value": updated,
	})
}
