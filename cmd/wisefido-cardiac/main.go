package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/common/logger"
	"wisefido-cardiac/internal/config"
	"wisefido-cardiac/internal/service"
)

var version = "dev"

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, config.ServiceName)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting wisefido-cardiac service",
		zap.String("version", version),
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("tenant_id", cfg.Cardiac.TenantID),
		zap.Bool("model_configured", cfg.Cardiac.Model.BaseURL != ""),
	)

	// 3. 创建服务
	cardiacService, err := service.NewCardiacService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create cardiac service", zap.Error(err))
	}

	// 4. 启动服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cardiacService.Start(ctx); err != nil {
		cardiacService.Stop()
		log.Fatal("Failed to start cardiac service", zap.Error(err))
	}

	// 5. 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 6. 优雅关闭
	cancel()
	if err := cardiacService.Stop(); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}

	log.Info("Service stopped")
}
