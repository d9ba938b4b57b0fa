package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zxyao/logify"
	"github.com/zxyao/logify/config"
)

const shutdownTimeout = 10 * time.Second

// Server 组装路由、请求日志和处理函数
type Server struct {
	cfg    config.ServerConfig
	engine *gin.Engine
	logger *logify.Logger
	zlog   *zap.Logger
	banner io.Writer
}

// New 创建 gin 引擎，依次为 recovery、请求日志中间件和路由
func New(cfg *config.Config, logger *logify.Logger, zlog *zap.Logger, clock logify.Clock) *Server {
	engine := gin.New()
	engine.Use(gin.RecoveryWithWriter(gin.DefaultErrorWriter))
	engine.Use(logger.Middleware())
	RegisterRoutes(engine, NewHandler(clock, cfg.Server.HelloDelay))

	return &Server{
		cfg:    cfg.Server,
		engine: engine,
		logger: logger,
		zlog:   zlog,
		banner: os.Stdout,
	}
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听配置的地址并提供服务，ctx 结束后优雅关闭并刷新请求日志
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	host, port := bannerAddr(ln.Addr())
	fmt.Fprintf(s.banner, "🦊 Elysia is running at %s:%s\n", host, port)
	s.zlog.Info("server started", zap.String("addr", ln.Addr().String()))

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.logger.Flush()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	s.logger.Flush()
	return err
}

// bannerAddr 返回启动信息中显示的地址，未指定 IP 时显示 localhost
func bannerAddr(addr net.Addr) (string, string) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		host, port, err := net.SplitHostPort(addr.String())
		if err != nil {
			return addr.String(), ""
		}
		return host, port
	}
	host := tcp.IP.String()
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		host = "localhost"
	}
	return host, strconv.Itoa(tcp.Port)
}
