package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fenxiao-next/internal/models"
)

const settingCacheTTL = 10 * time.Minute

func settingKey(key string) string {
	return fmt.Sprintf("setting:%s", key)
}

// GetSetting 读取设置缓存
func GetSetting(ctx context.Context, key string) (models.JSON, bool, error) {
	var value models.JSON
	hit, err := GetJSON(ctx, settingKey(key), &value)
	if err != nil || !hit {
		return nil, false, err
	}
	return value, true, nil
}

// SetSetting 写入设置缓存
func SetSetting(ctx context.Context, key string, value models.JSON) error {
	return SetJSON(ctx, settingKey(key), value, settingCacheTTL)
}

// DelSetting 删除设置缓存（配置更新后失效）
func DelSetting(ctx context.Context, key string) error {
	return Del(ctx, settingKey(key))
}
