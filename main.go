package main

import (
	"fmt"
	"time"

	"breedauth/internal/boot"
	"breedauth/pkg/logger"
	"breedauth/pkg/redis"
	"breedauth/pkg/version"

	"github.com/gin-gonic/gin"
)

// checkFatalErr 用于统一处理错误检查并中断流程。
func checkFatalErr(err error, message string) {
	if err != nil {
		logger.Fatal("%s: %v", message, err)
	}
}

func main() {
	// 设置构建时间（Build Time）
	version.BuildTime = time.Now().Format(time.RFC3339)

	// 加载配置文件（Configuration）
	cfg, err := boot.InitConfig("config/config.yaml")
	checkFatalErr(err, "Failed to load config")

	// 根据配置设置 Gin 的运行模式（Gin Mode）
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库连接（PostgreSQL）
	db, err := boot.InitDB(&cfg.Database)
	checkFatalErr(err, "Failed to connect to database")

	sqlDB, err := db.DB()
	checkFatalErr(err, "Failed to get underlying *sql.DB")
	defer sqlDB.Close()

	// 初始化 Redis 客户端（Redis）
	redisClient, err := redis.NewClient(&redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	checkFatalErr(err, "Failed to connect to Redis")

	// 初始化仓储层（Repositories）
	repos := boot.InitRepositories(cfg, db, redisClient)

	// 初始化服务层（Services）
	services, err := boot.InitServices(cfg, repos)
	checkFatalErr(err, "Failed to init services")

	// 初始化 HTTP 处理器（Handlers）
	handlers := boot.InitHandlers(cfg, services)

	// 初始化 Gin 引擎和路由（Router）
	r := gin.Default()
	_ = boot.InitRouter(r, handlers)

	logger.Info("Registered signin providers: %v", services.ProviderRegistry.Names())

	// 启动服务器（Server）
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
