package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fenxiao-next/internal/cache"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"
)

// SettingService 设置业务服务
//
// 业务规则（佣金模式、退款窗口、提现限额等）存储在 settings 表，
// 每次操作读取一份不可变快照；命中 Redis 缓存时不回源数据库。
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetByKey 获取设置（优先缓存）
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	ctx := context.Background()
	if value, hit, err := cache.GetSetting(ctx, key); err == nil && hit {
		return value, nil
	} else if err != nil {
		logger.Warnw("setting_cache_read_failed", "key", key, "error", err)
	}

	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	if err := cache.SetSetting(ctx, key, setting.ValueJSON); err != nil {
		logger.Warnw("setting_cache_write_failed", "key", key, "error", err)
	}
	return setting.ValueJSON, nil
}

// Update 更新设置并使缓存失效
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	normalized := normalizeSettingValueByKey(key, value)

	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	if err := cache.DelSetting(context.Background(), key); err != nil {
		logger.Warnw("setting_cache_invalidate_failed", "key", key, "error", err)
	}
	return setting.ValueJSON, nil
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.ParseFloat(trimmed, 64)
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}
