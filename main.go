package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notes-bin/imagehoster/internal/api"
	"github.com/notes-bin/imagehoster/internal/cache"
	"github.com/notes-bin/imagehoster/internal/config"
	"github.com/notes-bin/imagehoster/internal/redis"
	"github.com/notes-bin/imagehoster/internal/sqlite"
)

type store interface {
	api.Store
	io.Closer
}

func openStore(cfg *config.Config) (store, error) {
	if cfg.Store == config.StoreSQLite {
		return sqlite.Open(cfg.SQLite.Path)
	}
	return redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
}

func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON config file")
	flag.Parse()

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 加载配置文件（环境变量优先）
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 初始化存储
	st, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// 热门图片缓存
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	popular := cache.NewPopular(st)
	go popular.Start(ctx, cfg.TopRefreshInterval)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.SetupRouter(cfg, st, popular),
	}
	go func() {
		slog.Info("Server starting on port", "port", cfg.Port, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
