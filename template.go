package logify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyTemplate 模板为空
	ErrEmptyTemplate = errors.New("empty format template")
	// ErrUnknownPlaceholder 未知的占位符
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
	// ErrUnterminatedPlaceholder '{' 没有匹配的 '}'
	ErrUnterminatedPlaceholder = errors.New("unterminated placeholder")
)

type field int

const (
	fieldLiteral field = iota
	fieldTimestamp
	fieldLevel
	fieldMethod
	fieldPath
	fieldStatusCode
	fieldDuration
	fieldIP
)

var placeholders = map[string]field{
	"timestamp":  fieldTimestamp,
	"level":      fieldLevel,
	"method":     fieldMethod,
	"path":       fieldPath,
	"statusCode": fieldStatusCode,
	"duration":   fieldDuration,
	"ip":         fieldIP,
}

type segment struct {
	field field
	text  string
}

// Template 编译后的日志模板，占位符写作 {name}，其余文本原样输出
//
// 支持的占位符：{timestamp}、{level}、{method}、{path}、
// {statusCode}、{duration}（整数毫秒）、{ip}
type Template struct {
	source     string
	timeFormat string
	segments   []segment
}

// ParseTemplate 编译日志模板
// 空模板、未知或空的占位符、嵌套的 '{' 以及未闭合的 '{' 都会返回错误，单独的 '}' 按普通文本处理
func ParseTemplate(format string) (*Template, error) {
	if format == "" {
		return nil, ErrEmptyTemplate
	}

	t := &Template{source: format, timeFormat: DefaultTimeFormat}
	rest := format
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			t.appendLiteral(rest)
			break
		}
		t.appendLiteral(rest[:open])

		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w at offset %d", ErrUnterminatedPlaceholder, len(format)-len(rest)+open)
		}
		name := rest[open+1 : open+1+end]
		if strings.IndexByte(name, '{') >= 0 {
			return nil, fmt.Errorf("%w: nested '{' in {%s}", ErrUnterminatedPlaceholder, name)
		}
		f, ok := placeholders[name]
		if !ok {
			return nil, fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, name)
		}
		t.segments = append(t.segments, segment{field: f})
		rest = rest[open+end+2:]
	}
	return t, nil
}

func (t *Template) appendLiteral(s string) {
	if s == "" {
		return
	}
	if n := len(t.segments); n > 0 && t.segments[n-1].field == fieldLiteral {
		t.segments[n-1].text += s
		return
	}
	t.segments = append(t.segments, segment{field: fieldLiteral, text: s})
}

// String 返回原始模板
func (t *Template) String() string {
	return t.source
}

// Uses 判断模板是否使用了某个占位符
func (t *Template) Uses(name string) bool {
	f, ok := placeholders[name]
	if !ok {
		return false
	}
	for _, s := range t.segments {
		if s.field == f {
			return true
		}
	}
	return false
}

// Render 用日志条目填充模板
func (t *Template) Render(e *LogEntry) string {
	return t.render(e, nil)
}

// render 同 Render，level 可选，用于装饰级别文本
func (t *Template) render(e *LogEntry, level func(string) string) string {
	var b strings.Builder
	b.Grow(len(t.source) + 64)
	for _, s := range t.segments {
		switch s.field {
		case fieldLiteral:
			b.WriteString(s.text)
		case fieldTimestamp:
			b.WriteString(e.Timestamp.UTC().Format(t.timeFormat))
		case fieldLevel:
			if level != nil {
				b.WriteString(level(e.Level))
			} else {
				b.WriteString(e.Level)
			}
		case fieldMethod:
			b.WriteString(e.Method)
		case fieldPath:
			b.WriteString(e.Path)
		case fieldStatusCode:
			b.WriteString(strconv.Itoa(e.StatusCode))
		case fieldDuration:
			b.WriteString(strconv.FormatInt(e.Duration.Milliseconds(), 10))
		case fieldIP:
			b.WriteString(e.ClientIP)
		}
	}
	return b.String()
}
