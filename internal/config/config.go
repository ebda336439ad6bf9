package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 全局配置结构体（与 config.yaml 一一对应）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // PostgreSQL 配置
	Import   ImportConfig   `mapstructure:"import"`   // 导入与匹配配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // URL 形式 DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogSQL          bool          `mapstructure:"log_sql"`           // 是否打印 SQL
}

// ImportConfig 导入配置
type ImportConfig struct {
	DefaultProvider string `mapstructure:"default_provider"` // 未指定数据源时使用
	CreateStubs     bool   `mapstructure:"create_stubs"`     // 球员 no_match 默认是否建占位实体
	CandidateLimit  int    `mapstructure:"candidate_limit"`  // 单次前缀/模糊查询最多取多少候选
	BatchLimit      int    `mapstructure:"batch_limit"`      // 单次导入最大行数，0 为不限制
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`   // 上传文件大小上限
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在）
	_ = godotenv.Load() // .env 可不存在

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("import.default_provider", "fbref")
	v.SetDefault("import.candidate_limit", 200)
	v.SetDefault("import.max_body_bytes", 32<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database.dsn 未配置（可通过环境变量 DATABASE_DSN 设置）")
	}
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// GetGORMConfig 生成 GORM 配置。唯一约束错误统一翻译为 gorm.ErrDuplicatedKey
func (d *DatabaseConfig) GetGORMConfig() *gorm.Config {
	level := logger.Warn
	if d.LogSQL {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

// NewLogger 按配置创建 logrus 日志器，级别非法时回退到 info
func (l *LogConfig) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		log.Warnf("未知的日志级别%q，使用 info", l.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if l.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
