package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"powerfolio/internal/app"
	"powerfolio/internal/core/config"
	"powerfolio/internal/core/logger"
	"powerfolio/internal/core/server"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		// logger 还没建好，只能直接退出
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	// 依赖装配（失败直接 Fatal）
	a, err := app.New(cfg, log, cfg.DB.AutoMigrate)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver), zap.Bool("cache", a.Cache != nil))

	// HTTP Server
	h := cfg.App.HTTP
	addr := server.Addr(h.Host, h.Port)
	srv := server.BuildServer(
		addr, a.APIEngine(),
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	baseURL := server.HumanURL(h.Host, h.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 阻塞到 SIGINT/SIGTERM，然后优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Serve(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("user api FAILED", zap.Error(err))
		return
	}
	log.Info("user api stopped gracefully")
}
