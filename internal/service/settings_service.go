package service

import (
	"context"
	"reading_coach_backend/internal/config"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
)

const coachingSettingsKey = "coach:settings"

// SettingsService 业务阈值解析：配置文件兜底，Redis 配置中心逐键覆盖（只读消费）。
// 每个请求解析一次，测试注入固定值即可确定性复现。
type SettingsService struct {
	rdb *redis.Client

	mu       sync.RWMutex
	defaults config.CoachingConfig
}

func NewSettingsService(rdb *redis.Client, defaults config.CoachingConfig) *SettingsService {
	return &SettingsService{rdb: rdb, defaults: defaults}
}

// UpdateDefaults 配置文件热加载时替换兜底阈值
func (s *SettingsService) UpdateDefaults(defaults config.CoachingConfig) {
	s.mu.Lock()
	s.defaults = defaults
	s.mu.Unlock()
}

func (s *SettingsService) Coaching(ctx context.Context) config.CoachingConfig {
	s.mu.RLock()
	cfg := s.defaults
	s.mu.RUnlock()
	if s.rdb == nil {
		return cfg
	}

	fields, err := s.rdb.HGetAll(ctx, coachingSettingsKey).Result()
	if err != nil || len(fields) == 0 {
		// 配置中心不可用时直接用默认值，不视为错误
		return cfg
	}

	if v, ok := intField(fields, "qualify_min_sessions"); ok {
		cfg.QualifyMinSessions = v
	}
	if v, ok := intField(fields, "qualify_min_score"); ok {
		cfg.QualifyMinScore = v
	}
	if v, ok := intField(fields, "offline_max_percent"); ok {
		cfg.OfflineMaxPercent = v
	}
	if v, ok := intField(fields, "report_deadline_hours"); ok {
		cfg.ReportDeadlineHours = v
	}

	return cfg
}

func intField(fields map[string]string, key string) (int, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StaticSettings 固定阈值的 SettingsProvider，测试与脚本用
type StaticSettings struct {
	Config config.CoachingConfig
}

func (s StaticSettings) Coaching(ctx context.Context) config.CoachingConfig {
	return s.Config
}
