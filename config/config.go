package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/zxyao/logify"
)

// Config 配置文件结构
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logger   logify.Config  `yaml:"logger"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	HelloDelay time.Duration `yaml:"hello_delay"`
}

// DatabaseConfig 数据库配置，用于可选的数据库日志输出
type DatabaseConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	Table        string `yaml:"table"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// MetricsConfig prometheus 指标服务配置，Addr 为空时不启动
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig 服务自身日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":3000",
			HelloDelay: time.Second,
		},
		Logger: *logify.DefaultConfig(),
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			SSLMode:      "disable",
			Table:        logify.DefaultTableName,
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load 加载配置文件，在默认配置基础上应用文件和环境变量
// 文件不存在时不报错
func Load(path string) (*Config, error) {
	// .env 文件可选
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error
	if cfg.Server.Addr, err = cast.ToStringE(coalesce("LOGIFY_ADDR", cfg.Server.Addr)); err != nil {
		return envError("LOGIFY_ADDR", err)
	}
	if cfg.Logger.FilePath, err = cast.ToStringE(coalesce("LOGIFY_FILE_PATH", cfg.Logger.FilePath)); err != nil {
		return envError("LOGIFY_FILE_PATH", err)
	}
	if cfg.Logger.Console, err = cast.ToBoolE(coalesce("LOGIFY_CONSOLE", cfg.Logger.Console)); err != nil {
		return envError("LOGIFY_CONSOLE", err)
	}
	if cfg.Logger.File, err = cast.ToBoolE(coalesce("LOGIFY_FILE", cfg.Logger.File)); err != nil {
		return envError("LOGIFY_FILE", err)
	}
	if cfg.Logger.IncludeIP, err = cast.ToBoolE(coalesce("LOGIFY_INCLUDE_IP", cfg.Logger.IncludeIP)); err != nil {
		return envError("LOGIFY_INCLUDE_IP", err)
	}
	if v, ok := os.LookupEnv("LOGIFY_SKIP"); ok {
		cfg.Logger.Skip = ParseSkipPaths(v)
	}
	if cfg.Metrics.Addr, err = cast.ToStringE(coalesce("LOGIFY_METRICS_ADDR", cfg.Metrics.Addr)); err != nil {
		return envError("LOGIFY_METRICS_ADDR", err)
	}
	if cfg.Log.Level, err = cast.ToStringE(coalesce("LOGIFY_LOG_LEVEL", cfg.Log.Level)); err != nil {
		return envError("LOGIFY_LOG_LEVEL", err)
	}
	if cfg.Database.Enabled, err = cast.ToBoolE(coalesce("LOGIFY_DB_ENABLED", cfg.Database.Enabled)); err != nil {
		return envError("LOGIFY_DB_ENABLED", err)
	}
	if cfg.Database.Host, err = cast.ToStringE(coalesce("LOGIFY_DB_HOST", cfg.Database.Host)); err != nil {
		return envError("LOGIFY_DB_HOST", err)
	}
	if cfg.Database.Password, err = cast.ToStringE(coalesce("LOGIFY_DB_PASSWORD", cfg.Database.Password)); err != nil {
		return envError("LOGIFY_DB_PASSWORD", err)
	}
	return nil
}

func envError(key string, err error) error {
	return fmt.Errorf("invalid %s: %w", key, err)
}

func coalesce(key string, value interface{}) interface{} {
	val, exist := os.LookupEnv(key)
	if exist {
		return val
	}
	return value
}

// ParseSkipPaths 解析逗号分隔的路径列表，忽略空项
func ParseSkipPaths(paths string) []string {
	var result []string
	for _, p := range strings.Split(paths, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// BuildDSN 构建数据库连接字符串
func (c *DatabaseConfig) BuildDSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.Name, c.SSLMode)
	default:
		return c.Name
	}
}

// SinkConfig 转换为 logify.OpenDBSink 的配置
func (c *DatabaseConfig) SinkConfig() logify.DBConfig {
	return logify.DBConfig{
		Driver:       c.Driver,
		DSN:          c.BuildDSN(),
		TableName:    c.Table,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
	}
}
