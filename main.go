package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/cppla/postapi/config"
	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/routes"
	"github.com/cppla/postapi/utils"
)

func main() {
	cfg := config.Load()

	logger, err := utils.InitLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := config.InitDatabase(cfg, &models.User{}, &models.Post{}, &models.Comment{})
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	rdb, err := utils.NewRedisClient(context.Background(), cfg)
	if err != nil {
		logger.Warn("redis unavailable, running without feed cache", zap.Error(err))
		_ = rdb.Close()
		rdb = nil
	}

	accessLog, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		logger.Warn("access log file unavailable, using app logger", zap.Error(err))
		accessLog = nil
	}

	r := routes.SetupRouter(routes.Deps{
		Config:       cfg,
		DB:           db,
		Redis:        rdb,
		Logger:       logger,
		AccessLogger: accessLog,
	})

	logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
