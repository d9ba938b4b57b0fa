package logify

import "io"

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// ConsoleSink 控制台日志输出实现，通常写到 stdout
// 日志先入队再由独立协程写出，输出流阻塞不会拖慢响应
type ConsoleSink struct {
	*asyncQueue
	w     io.Writer
	tmpl  *Template
	color bool
}

// NewConsoleSink 创建控制台日志输出
// color 为 true 时级别文本带 ANSI 颜色，此时 tmpl 不能为空
// bufferSize 异步队列容量
func NewConsoleSink(w io.Writer, tmpl *Template, color bool, bufferSize int) *ConsoleSink {
	s := &ConsoleSink{w: w, tmpl: tmpl, color: color && tmpl != nil}
	s.asyncQueue = newAsyncQueue("console", bufferSize, s.writeLine)
	return s
}

// writeLine 写入单条日志，整行一次写出
func (s *ConsoleSink) writeLine(entry *LogEntry) error {
	line := entry.Line
	if s.color {
		line = s.tmpl.render(entry, colorLevel)
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := s.w.Write(buf)
	return err
}

// Close 实现 Sink 接口，不关闭底层输出流
func (s *ConsoleSink) Close() error {
	s.shutdown()
	return nil
}

func colorLevel(level string) string {
	switch level {
	case LevelError:
		return colorRed + level + colorReset
	case LevelWarn:
		return colorYellow + level + colorReset
	default:
		return colorGreen + level + colorReset
	}
}
