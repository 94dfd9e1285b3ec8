package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	Calendar   CalendarConfig   `mapstructure:"calendar"`
	Recorder   RecorderConfig   `mapstructure:"recorder"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
	Coaching   CoachingConfig   `mapstructure:"coaching"`
	Queue      QueueConfig      `mapstructure:"queue"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CalendarConfig 外部日历服务（预约事件、视频链接）
type CalendarConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// RecorderConfig 视频录制机器人服务
type RecorderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// NotifyConfig 家长/教练消息推送服务
type NotifyConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// TranscribeConfig 转写与朗读分析服务
type TranscribeConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// CoachingConfig 教学业务可调阈值，可被 Redis 配置中心逐键覆盖
type CoachingConfig struct {
	// 线下转换自动批准的资质门槛
	QualifyMinSessions int `mapstructure:"qualify_min_sessions"` // 默认 3
	QualifyMinScore    int `mapstructure:"qualify_min_score"`    // 百分制，默认 70
	// 每期课程线下课占比上限（百分比，floor 取整）
	OfflineMaxPercent int `mapstructure:"offline_max_percent"` // 默认 25
	// 线下课报告截止：开课时间 + N 小时
	ReportDeadlineHours int `mapstructure:"report_deadline_hours"` // 默认 4
}

type QueueConfig struct {
	// 完课后摘要任务的延迟投递秒数，留时间让刚写入的事实可读
	SummaryDelaySeconds int `mapstructure:"summary_delay_seconds"`
	MaxAttempts         int `mapstructure:"max_attempts"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("READING_COACH")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.public_base_url", "STORAGE_PUBLIC_BASE_URL")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// 外部协作方
	viper.BindEnv("calendar.base_url", "CALENDAR_BASE_URL")
	viper.BindEnv("calendar.api_key", "CALENDAR_API_KEY")
	viper.BindEnv("calendar.webhook_secret", "CALENDAR_WEBHOOK_SECRET")
	viper.BindEnv("recorder.base_url", "RECORDER_BASE_URL")
	viper.BindEnv("recorder.api_key", "RECORDER_API_KEY")
	viper.BindEnv("notify.base_url", "NOTIFY_BASE_URL")
	viper.BindEnv("notify.api_key", "NOTIFY_API_KEY")
	viper.BindEnv("transcribe.base_url", "TRANSCRIBE_BASE_URL")
	viper.BindEnv("transcribe.api_key", "TRANSCRIBE_API_KEY")

	// 业务阈值默认值
	viper.SetDefault("coaching.qualify_min_sessions", 3)
	viper.SetDefault("coaching.qualify_min_score", 70)
	viper.SetDefault("coaching.offline_max_percent", 25)
	viper.SetDefault("coaching.report_deadline_hours", 4)
	viper.SetDefault("queue.summary_delay_seconds", 30)
	viper.SetDefault("queue.max_attempts", 3)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
