package logify

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/zxyao/logify/logs"
	"github.com/zxyao/logify/metrics"
)

// 日志级别，由响应状态码决定
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogEntry 一次完整请求的日志条目
type LogEntry struct {
	Timestamp  time.Time
	Level      string
	Method     string
	Path       string
	StatusCode int
	Duration   time.Duration
	// 未开启 Config.IncludeIP 时为空
	ClientIP string
	// 渲染后的日志行，不含换行符
	Line string
}

// DurationMillis 返回以毫秒为单位的耗时（含小数）
func (e *LogEntry) DurationMillis() float64 {
	return float64(e.Duration) / float64(time.Millisecond)
}

// LevelFor 根据状态码返回日志级别：5xx 为 ERROR，4xx 为 WARN，其余为 INFO
func LevelFor(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return LevelError
	case status >= http.StatusBadRequest:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Sink 日志输出接口
type Sink interface {
	// 输出名称，用于错误报告和监控指标
	Name() string
	// 写入一条日志，整行必须一次写出
	Write(entry *LogEntry) error
	// 阻塞直到之前写入的日志全部输出
	Flush()
	// 刷新并关闭
	Close() error
}

// Logger 渲染请求日志并分发到各个输出
type Logger struct {
	cfg      Config
	tmpl     *Template
	skip     map[string]struct{}
	clock    Clock
	sinks    []Sink
	reporter *failureReporter
	metrics  *metrics.Metrics
}

// Option Logger 的可选配置
type Option func(*options)

type options struct {
	clock   Clock
	sinks   []Sink
	console io.Writer
	zlog    *zap.Logger
	metrics *metrics.Metrics
}

// WithClock 设置时钟，默认为 SystemClock()
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSinks 在控制台和文件之外追加输出
func WithSinks(sinks ...Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

// WithConsoleWriter 设置控制台输出的目标，默认为 stdout
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithZapLogger 设置输出失败时的报告日志，默认写到 stderr
func WithZapLogger(l *zap.Logger) Option {
	return func(o *options) { o.zlog = l }
}

// WithMetrics 启用 prometheus 统计
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New 校验配置并创建 Logger，cfg 为 nil 时使用 DefaultConfig()
// 配置错误在这里返回，不会在请求时出现
func New(cfg *Config, opts ...Option) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := cfg.withDefaults()

	tmpl, err := ParseTemplate(c.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid format: %w", err)
	}
	tmpl.timeFormat = c.TimeFormat

	o := options{
		clock:   SystemClock(),
		console: os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.zlog == nil {
		if o.zlog, err = logs.New("info", "console"); err != nil {
			return nil, err
		}
	}

	l := &Logger{
		cfg:      c,
		tmpl:     tmpl,
		skip:     c.skipSet(),
		clock:    o.clock,
		reporter: newFailureReporter(o.zlog, o.metrics),
		metrics:  o.metrics,
	}

	if c.Console {
		l.sinks = append(l.sinks, NewConsoleSink(o.console, tmpl, c.colorEnabled(o.console), c.BufferSize))
	}
	if c.File {
		fs, err := NewFileSink(c.FilePath, c.BufferSize, c.Rotation)
		if err != nil {
			l.Close()
			return nil, err
		}
		l.sinks = append(l.sinks, fs)
	}
	l.sinks = append(l.sinks, o.sinks...)

	for _, s := range l.sinks {
		if as, ok := s.(asyncSink); ok {
			as.setResultHandler(l.reporter.observe)
		}
	}
	return l, nil
}

// Template 返回编译后的日志模板
func (l *Logger) Template() *Template {
	return l.tmpl
}

// ShouldSkip 判断路径是否跳过日志
func (l *Logger) ShouldSkip(path string) bool {
	_, ok := l.skip[path]
	return ok
}

// Log 渲染日志行并写入所有输出
// 输出失败通过 zap 报告，不会返回给调用方
func (l *Logger) Log(entry *LogEntry) {
	if entry.Level == "" {
		entry.Level = LevelFor(entry.StatusCode)
	}
	entry.Line = l.tmpl.Render(entry)

	for _, s := range l.sinks {
		err := s.Write(entry)
		if _, async := s.(asyncSink); async && err == nil {
			// 异步输出自己报告写入结果
			continue
		}
		l.reporter.observe(s.Name(), err)
	}
}

// Flush 等待队列中的日志写完
func (l *Logger) Flush() {
	for _, s := range l.sinks {
		s.Flush()
	}
}

// Close 写完剩余日志并关闭所有输出
func (l *Logger) Close() error {
	var errs []error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
