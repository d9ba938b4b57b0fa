package logify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/mattn/go-isatty"
)

// DefaultTimeFormat {timestamp} 的默认格式，时间统一按 UTC 输出
const DefaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DefaultFormat 默认日志行模板
const DefaultFormat = `🚀 {timestamp} | {level} | {method}:"{path}" | Status: {statusCode} | Time: {duration} ms`

// DefaultFilePath 默认日志文件路径
const DefaultFilePath = "logs/app.log"

// DefaultBufferSize 异步输出的默认队列容量
const DefaultBufferSize = 1000

// 控制台颜色模式
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	// ErrMissingFilePath 启用了文件输出但未配置路径
	ErrMissingFilePath = errors.New("file sink enabled without filePath")
	// ErrInvalidBufferSize 缓冲区大小为负数
	ErrInvalidBufferSize = errors.New("bufferSize must not be negative")
	// ErrInvalidColor 未知的颜色模式
	ErrInvalidColor = errors.New("color must be one of auto, always, never")
)

// Rotation 日志文件按大小切割的配置
// MaxSizeMB 为 0 时使用 lumberjack 的默认值 100 MB，即默认配置下日志文件
// 超过 100 MB 会被重命名归档并新建文件；MaxBackups 和 MaxAgeDays 为 0 时保留全部归档。
type Rotation struct {
	MaxSizeMB  int  `yaml:"maxSizeMB"`
	MaxBackups int  `yaml:"maxBackups"`
	MaxAgeDays int  `yaml:"maxAgeDays"`
	Compress   bool `yaml:"compress"`
}

// Config 请求日志配置
// 只在 New 时读取一次，之后修改不会生效
type Config struct {
	// 是否输出到控制台
	Console bool `yaml:"console"`
	// 是否输出到文件
	File bool `yaml:"file"`
	// 日志文件路径，目录不存在时自动创建
	FilePath string `yaml:"filePath"`
	// 不记录日志的路径，精确匹配
	Skip []string `yaml:"skip"`
	// 日志行模板，见 ParseTemplate
	Format string `yaml:"format"`
	// 是否记录客户端 IP，关闭时 {ip} 输出为空
	IncludeIP bool `yaml:"includeIp"`
	// {timestamp} 的时间格式
	TimeFormat string `yaml:"timeFormat"`
	// 异步输出的队列容量
	BufferSize int `yaml:"bufferSize"`
	// 控制台颜色模式：auto、always 或 never
	Color string `yaml:"color"`
	// 日志文件切割配置，零值时按 100 MB 切割
	Rotation Rotation `yaml:"rotation"`
}

// DefaultConfig 返回默认配置
// 同时输出到控制台和 logs/app.log，跳过 /health 和 /metrics。
// 日志文件按 lumberjack 默认的 100 MB 切割，见 Rotation。
func DefaultConfig() *Config {
	return &Config{
		Console:    true,
		File:       true,
		FilePath:   DefaultFilePath,
		Skip:       []string{"/health", "/metrics"},
		Format:     DefaultFormat,
		IncludeIP:  true,
		TimeFormat: DefaultTimeFormat,
		BufferSize: DefaultBufferSize,
		Color:      ColorAuto,
	}
}

// Validate 校验配置，包括编译日志模板
func (c *Config) Validate() error {
	cfg := c.withDefaults()
	if _, err := ParseTemplate(cfg.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	if cfg.File && cfg.FilePath == "" {
		return ErrMissingFilePath
	}
	if cfg.BufferSize < 0 {
		return ErrInvalidBufferSize
	}
	switch cfg.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColor, cfg.Color)
	}
	return nil
}

// withDefaults 返回填充了默认值的副本
// Format 不填充默认值，空模板校验失败
func (c *Config) withDefaults() Config {
	cfg := *c
	cfg.Skip = slices.Clone(c.Skip)
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = DefaultTimeFormat
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Color == "" {
		cfg.Color = ColorAuto
	}
	return cfg
}

// skipSet 构建跳过路径的精确匹配集合
func (c *Config) skipSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Skip))
	for _, p := range c.Skip {
		set[p] = struct{}{}
	}
	return set
}

// colorEnabled 根据控制台输出判断是否启用颜色
func (c *Config) colorEnabled(w io.Writer) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
