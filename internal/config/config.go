package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Engine    EngineConfig    `mapstructure:"engine"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
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

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EngineConfig 阅读活动引擎的可调参数
type EngineConfig struct {
	MaxHeartbeatGapSeconds     int    `mapstructure:"max_heartbeat_gap_seconds"`
	MaxIdleSeconds             int    `mapstructure:"max_idle_seconds"`
	StreakMinSeconds           int    `mapstructure:"streak_min_seconds"`
	ReconcileIntervalSeconds   int    `mapstructure:"reconcile_interval_seconds"`
	SettleCheckIntervalSeconds int    `mapstructure:"settle_check_interval_seconds"`
	LeaderboardTimezone        string `mapstructure:"leaderboard_timezone"`
	LeaderboardCacheTTLSeconds int    `mapstructure:"leaderboard_cache_ttl_seconds"`
	LeaderboardSize            int    `mapstructure:"leaderboard_size"`
}

func (e EngineConfig) MaxHeartbeatGap() time.Duration {
	return time.Duration(e.MaxHeartbeatGapSeconds) * time.Second
}

func (e EngineConfig) MaxIdle() time.Duration {
	return time.Duration(e.MaxIdleSeconds) * time.Second
}

func (e EngineConfig) LeaderboardCacheTTL() time.Duration {
	return time.Duration(e.LeaderboardCacheTTLSeconds) * time.Second
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("READHUB")
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

	// Engine
	viper.BindEnv("engine.leaderboard_timezone", "LEADERBOARD_TIMEZONE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	applyEngineDefaults(&cfg.Engine)

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if _, err := time.LoadLocation(cfg.Engine.LeaderboardTimezone); err != nil {
		return nil, fmt.Errorf("invalid leaderboard timezone %q: %w", cfg.Engine.LeaderboardTimezone, err)
	}

	return &cfg, nil
}

// applyEngineDefaults 引擎参数缺省值（见 configs/config.yaml 注释）
func applyEngineDefaults(e *EngineConfig) {
	if e.MaxHeartbeatGapSeconds <= 0 {
		e.MaxHeartbeatGapSeconds = 120
	}
	if e.MaxIdleSeconds <= 0 {
		e.MaxIdleSeconds = 1800
	}
	if e.StreakMinSeconds <= 0 {
		e.StreakMinSeconds = 300
	}
	if e.ReconcileIntervalSeconds <= 0 {
		e.ReconcileIntervalSeconds = 60
	}
	if e.SettleCheckIntervalSeconds <= 0 {
		e.SettleCheckIntervalSeconds = 60
	}
	if e.LeaderboardTimezone == "" {
		e.LeaderboardTimezone = "UTC"
	}
	if e.LeaderboardCacheTTLSeconds <= 0 {
		e.LeaderboardCacheTTLSeconds = 30
	}
	if e.LeaderboardSize <= 0 {
		e.LeaderboardSize = 100
	}
}
