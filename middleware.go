package logify

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware 返回请求日志中间件
//
// 跳过路径的请求直接放行，不读取时钟也不写日志。
// 其余请求从进入中间件开始计时，到后续处理函数返回为止，记录一条日志。
// 中间件不修改请求和响应。
func (l *Logger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if l.ShouldSkip(path) {
			c.Next()
			return
		}

		method := c.Request.Method
		start := l.clock.Now()
		completed := false
		defer func() {
			if !completed {
				// 处理函数 panic，外层的 recovery 中间件会返回 500
				l.record(c, method, path, http.StatusInternalServerError, start)
			}
		}()

		c.Next()
		completed = true
		l.record(c, method, path, c.Writer.Status(), start)
	}
}

func (l *Logger) record(c *gin.Context, method, path string, status int, start time.Time) {
	now := l.clock.Now()
	entry := &LogEntry{
		Timestamp:  now,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Duration:   now.Sub(start),
	}
	if l.cfg.IncludeIP {
		entry.ClientIP = c.ClientIP()
	}
	l.metrics.ObserveRequest(method, status, entry.Duration)
	l.Log(entry)
}
