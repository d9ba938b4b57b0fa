package logify

import (
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileSink 文件日志输出实现
// 文件和缺失的目录在第一次写入时创建，路径不可写只会产生写入错误，不会导致创建失败
type FileSink struct {
	*asyncQueue
	writer *lumberjack.Logger
}

// NewFileSink 创建文件日志输出
// path 日志文件路径
// bufferSize 异步队列容量
// rot 切割配置
func NewFileSink(path string, bufferSize int, rot Rotation) (*FileSink, error) {
	if path == "" {
		return nil, ErrMissingFilePath
	}

	s := &FileSink{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAge:     rot.MaxAgeDays,
			Compress:   rot.Compress,
			LocalTime:  true,
		},
	}
	s.asyncQueue = newAsyncQueue("file", bufferSize, s.writeEntry)
	return s, nil
}

// Path 返回日志文件路径
func (s *FileSink) Path() string {
	return s.writer.Filename
}

// writeEntry 写入单条日志，整行一次写出，避免交错
func (s *FileSink) writeEntry(entry *LogEntry) error {
	buf := make([]byte, 0, len(entry.Line)+1)
	buf = append(buf, entry.Line...)
	buf = append(buf, '\n')
	if _, err := s.writer.Write(buf); err != nil {
		return fmt.Errorf("failed to write log file %s: %w", s.writer.Filename, err)
	}
	return nil
}

// Close 实现 Sink 接口
func (s *FileSink) Close() error {
	if !s.shutdown() {
		return nil
	}
	return s.writer.Close()
}
