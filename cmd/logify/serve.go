package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zxyao/logify"
	"github.com/zxyao/logify/app"
	"github.com/zxyao/logify/config"
	"github.com/zxyao/logify/logs"
	"github.com/zxyao/logify/metrics"
)

// processClock is created at startup so /metrics reports process uptime.
var processClock = logify.SystemClock()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long:  `Start the HTTP server on the configured address (default :3000).`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zlog, err := logs.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer zlog.Sync()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	opts := []logify.Option{
		logify.WithClock(processClock),
		logify.WithZapLogger(zlog),
		logify.WithMetrics(m),
	}

	if cfg.Database.Enabled {
		dbSink, err := logify.OpenDBSink(ctx, cfg.Database.SinkConfig(), cfg.Logger.BufferSize)
		if err != nil {
			return err
		}
		if err := dbSink.CreateTable(ctx); err != nil {
			dbSink.Close()
			return err
		}
		zlog.Info("database sink enabled",
			zap.String("host", cfg.Database.Host),
			zap.String("table", cfg.Database.Table))
		opts = append(opts, logify.WithSinks(dbSink))
	}

	logger, err := logify.New(&cfg.Logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create request logger: %w", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			zlog.Error("failed to close request logger", zap.Error(err))
		}
	}()

	if cfg.Metrics.Addr != "" {
		metricsServer := metrics.StartServer(cfg.Metrics.Addr, prometheus.DefaultGatherer, zlog)
		defer metricsServer.Close()
		zlog.Info("metrics exporter started", zap.String("addr", cfg.Metrics.Addr))
	}

	return app.New(cfg, logger, zlog, processClock).Run(ctx)
}
