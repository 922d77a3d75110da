package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/handler"
	"github.com/TIANLI0/ClothMask/middleware"
	"github.com/TIANLI0/ClothMask/service"
	"github.com/TIANLI0/ClothMask/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	// 加载配置
	cfg := config.New()

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting ClothMask server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	// 确保上传、输出目录存在
	for _, dir := range []string{cfg.Upload.UploadDir, cfg.Upload.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			utils.Logger.Fatal("failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// 初始化Redis
	var cache service.MaskCache
	if cfg.Redis.Enabled {
		redisService := service.NewRedisService(&cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisService.Ping(ctx); err != nil {
			utils.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
		} else {
			utils.Logger.Info("redis connected successfully")
			cache = redisService
		}
		cancel()
		defer redisService.Close()
	}

	// 初始化掩码服务
	maskService, err := service.NewMaskService(cfg, cache, nil)
	if err != nil {
		utils.Logger.Fatal("invalid mask configuration", zap.Error(err))
	}
	tryOnRunner := service.NewTryOnRunner(&cfg.TryOn, cfg.Upload.OutputDir)
	if !tryOnRunner.Enabled() {
		utils.Logger.Info("try-on command not configured, /tryon disabled")
	}

	// 定期清理
	if cfg.Janitor.Enabled {
		janitor := service.NewJanitor(&cfg.Janitor, cfg.Upload.UploadDir, cfg.Upload.OutputDir)
		if err := janitor.Start(); err != nil {
			utils.Logger.Fatal("failed to start janitor", zap.Error(err))
		}
		defer janitor.Stop()
	}

	// 初始化Handler
	uploadHandler := handler.NewUploadHandler(cfg, maskService)
	tryOnHandler := handler.NewTryOnHandler(cfg, maskService, tryOnRunner)

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 创建路由
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxSize
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"version": Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"build_id":   BuildID,
			"git_commit": GitCommit,
			"git_branch": GitBranch,
		})
	})

	r.POST("/tryon", tryOnHandler.TryOn)

	// API路由
	api := r.Group("/api/v1")
	{
		api.POST("/mask", uploadHandler.Upload)
		api.POST("/upload", uploadHandler.Upload)
		api.GET("/mask/:md5", uploadHandler.GetByMD5)
		api.POST("/tryon", tryOnHandler.TryOn)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error("server forced to shutdown", zap.Error(err))
	}
}
