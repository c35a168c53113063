package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/gemflow/internal/cache"
	catalogentity "github.com/bitfantasy/gemflow/internal/catalog/entity"
	cataloghandler "github.com/bitfantasy/gemflow/internal/catalog/handler"
	catalogrepo "github.com/bitfantasy/gemflow/internal/catalog/repository"
	catalogsvc "github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/bitfantasy/gemflow/internal/config"
	"github.com/bitfantasy/gemflow/internal/middleware"
	orderentity "github.com/bitfantasy/gemflow/internal/order/entity"
	orderhandler "github.com/bitfantasy/gemflow/internal/order/handler"
	orderrepo "github.com/bitfantasy/gemflow/internal/order/repository"
	ordersvc "github.com/bitfantasy/gemflow/internal/order/service"
	"github.com/bitfantasy/gemflow/internal/storage"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 本地开发环境变量
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting gemflow service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := autoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// 初始化Redis（不可用时视图缓存降级为直读）
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, view cache disabled", zap.Error(err))
		rdb = nil
	}
	views := cache.NewViews(rdb, zapLogger, cfg.Redis.ViewTTL)

	// 初始化对象存储（不可用时回落本地目录）
	uploader := initStorage(cfg.MinIO, zapLogger)

	// 初始化依赖
	catalogRepos := catalogrepo.NewRepositories(db)
	orderRepos := orderrepo.NewRepositories(db)
	catalogServices := catalogsvc.NewServices(catalogRepos, views, uploader)
	orderServices := ordersvc.NewServices(orderRepos, catalogRepos, views, cfg.Order.MinLeadTimeDays)
	catalogHandlers := cataloghandler.NewHandlers(catalogServices)
	orderHandlers := orderhandler.NewHandlers(orderServices)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, catalogHandlers, orderHandlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalogentity.Material{},
		&catalogentity.Metal{},
		&catalogentity.Category{},
		&catalogentity.Size{},
		&catalogentity.Product{},
		&catalogentity.Collection{},
		&catalogentity.StageDefinition{},
		&catalogentity.Distributor{},
		&orderentity.Order{},
		&orderentity.OrderItem{},
		&orderentity.OrderStageAudit{},
	)
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initStorage(cfg config.MinIOConfig, zapLogger *zap.Logger) *storage.Uploader {
	if cfg.Endpoint == "" {
		zapLogger.Info("MinIO not configured, using local upload directory")
		return storage.NewUploader(nil, cfg.Bucket, cfg.LocalDir)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		zapLogger.Warn("MinIO unavailable, using local upload directory", zap.Error(err))
		return storage.NewUploader(nil, cfg.Bucket, cfg.LocalDir)
	}
	return storage.NewUploader(client, cfg.Bucket, cfg.LocalDir)
}

func registerRoutes(r *gin.Engine, ch *cataloghandler.Handlers, oh *orderhandler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 目录浏览（管理员与经销商共用，经销商自动按可见性过滤）
			authorized.GET("/materials", ch.Material.ListMaterials)
			authorized.GET("/metals", ch.Material.ListMetals)
			authorized.GET("/categories", ch.Taxonomy.ListCategories)
			authorized.GET("/sizes", ch.Taxonomy.ListSizes)
			authorized.GET("/stages", ch.Stage.List)
			authorized.GET("/products", ch.Product.List)
			authorized.GET("/products/tags", ch.Product.Tags)
			authorized.GET("/products/:id", ch.Product.Get)
			authorized.GET("/collections", ch.Collection.List)
			authorized.GET("/collections/:id", ch.Collection.Get)

			// 订单（经销商只能操作自己的订单，服务层强制）
			orders := authorized.Group("/orders")
			{
				orders.POST("", oh.Order.Submit)
				orders.GET("", oh.Order.List)
				orders.GET("/:id", oh.Order.Get)
			}

			// 管理端
			admin := authorized.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// 材质/金属注册表
				admin.POST("/materials", ch.Material.CreateMaterial)
				admin.PUT("/materials/:id", ch.Material.UpdateMaterial)
				admin.PUT("/materials/:id/visibility", ch.Material.ToggleMaterialVisibility)
				admin.DELETE("/materials/:id", ch.Material.DeleteMaterial)
				admin.POST("/metals", ch.Material.CreateMetal)
				admin.PUT("/metals/:id", ch.Material.UpdateMetal)
				admin.PUT("/metals/:id/visibility", ch.Material.ToggleMetalVisibility)
				admin.DELETE("/metals/:id", ch.Material.DeleteMetal)

				// 类目/尺寸
				admin.POST("/categories", ch.Taxonomy.CreateCategory)
				admin.DELETE("/categories/:id", ch.Taxonomy.DeleteCategory)
				admin.POST("/sizes", ch.Taxonomy.CreateSize)
				admin.DELETE("/sizes/:id", ch.Taxonomy.DeleteSize)

				// 工序定义
				admin.POST("/stages", ch.Stage.Create)
				admin.PUT("/stages/reorder", ch.Stage.Reorder)
				admin.PUT("/stages/:id", ch.Stage.Update)
				admin.DELETE("/stages/:id", ch.Stage.Delete)

				// 产品管理
				admin.POST("/products", ch.Product.Create)
				admin.PUT("/products/:id", ch.Product.Update)
				admin.PUT("/products/:id/active", ch.Product.SetActive)
				admin.DELETE("/products/:id", ch.Product.Delete)
				admin.POST("/products/upload", ch.Product.UploadAsset)
				admin.GET("/products/export", ch.Product.Export)
				admin.GET("/products/import-template", ch.Product.DownloadTemplate)
				admin.POST("/products/import", ch.Product.Import)
				admin.GET("/products/:id/cad", ch.Product.DownloadCAD)

				// 产品系列
				admin.POST("/collections", ch.Collection.Create)
				admin.PUT("/collections/:id/visibility", ch.Collection.SetVisibility)
				admin.DELETE("/collections/:id", ch.Collection.Delete)
				admin.POST("/collections/:id/products", ch.Collection.AssignProducts)
				admin.DELETE("/collections/:id/products/:productId", ch.Collection.RemoveProduct)

				// 经销商档案
				admin.GET("/distributors", ch.Distributor.List)
				admin.POST("/distributors", ch.Distributor.Create)
				admin.GET("/distributors/:id", ch.Distributor.Get)
				admin.PUT("/distributors/:id", ch.Distributor.Update)
				admin.PUT("/distributors/:id/status", ch.Distributor.SetStatus)

				// 订单工序管理
				admin.GET("/orders/cads", oh.Order.ListCADs)
				admin.PUT("/orders/:id/items/:itemId", oh.Order.UpdateItem)
				admin.PUT("/orders/:id/items/:itemId/stage", oh.Order.TransitionItem)
				admin.POST("/orders/:id/split", oh.Order.Split)
				admin.POST("/orders/:id/repair-status", oh.Order.RepairStatus)

				// 看板与报表
				admin.GET("/dashboard", oh.Dashboard.Get)
				admin.GET("/reports/weight", oh.Report.Get)
				admin.GET("/reports/weight/export", oh.Report.Export)
			}
		}
	}
}
