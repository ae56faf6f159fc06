package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/ragstore/config"
	"github.com/BaSui01/ragstore/internal/embedcache"
	"github.com/BaSui01/ragstore/knowledge"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	rootCmd := NewRootCmd(version)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 持有各命令共享的依赖，在 PersistentPreRunE 中装配
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	factory *knowledge.Factory
}

func (a *app) setup(configPath string) error {
	cfg, err := config.NewLoader().WithConfigPath(configPath).Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.factory = knowledge.NewFactory(cfg, logger)

	if cfg.Cache.Enabled {
		cache, err := embedcache.New(embedcache.Config{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		}, logger)
		if err != nil {
			// 缓存不可用不阻断命令执行
			logger.Warn("embedding cache unavailable, continuing without it", zap.Error(err))
		} else {
			a.factory.WithCache(cache)
		}
	}
	return nil
}

func (a *app) manager(ctx context.Context, collection string) (knowledge.Manager, error) {
	return a.factory.Manager(ctx, collection, "")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Encoding == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
