package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zxyao/logify"
)

// statusClientClosedRequest 客户端在响应前断开时记录的状态码
const statusClientClosedRequest = 499

// Handler 示例服务的路由处理
type Handler struct {
	clock      logify.Clock
	helloDelay time.Duration
}

// NewHandler 创建路由处理
func NewHandler(clock logify.Clock, helloDelay time.Duration) *Handler {
	return &Handler{clock: clock, helloDelay: helloDelay}
}

// Hello 等待配置的延迟后返回 "Hello Elysia"
func (h *Handler) Hello(c *gin.Context) {
	if h.helloDelay > 0 {
		timer := time.NewTimer(h.helloDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.Request.Context().Done():
			c.AbortWithStatus(statusClientClosedRequest)
			return
		}
	}
	c.String(http.StatusOK, "Hello Elysia")
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Metrics 返回进程运行时间（秒）
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime": logify.Uptime(h.clock).Seconds(),
	})
}

// RegisterRoutes 注册路由
func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/", h.Hello)
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics)
}
