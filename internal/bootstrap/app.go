package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"adminpanel/internal/cache"
	"adminpanel/internal/config"
	"adminpanel/internal/model"
	"adminpanel/internal/pkg/logger"
	mysqlClient "adminpanel/internal/platform/mysql"
	postgresClient "adminpanel/internal/platform/postgres"
	rabbitmqClient "adminpanel/internal/platform/rabbitmq"
	redisClient "adminpanel/internal/platform/redis"
	"adminpanel/internal/storage"
	"adminpanel/internal/worker"
)

type App struct {
	Config        *config.Config
	DB            *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Store         storage.Store
	Flash         *cache.FlashStore
	Cleaner       *rabbitmqClient.AssetCleanupPublisher
	CleanupWorker *worker.AssetCleanupWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Log.Level,
		Output:   cfg.Log.Output,
		FilePath: cfg.Log.FilePath,
	}); err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	a.DB = db
	if err := db.AutoMigrate(&model.User{}, &model.Post{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	a.Redis = redisCli
	a.Flash = cache.NewFlashStore(redisCli, time.Duration(cfg.Redis.FlashTTLSeconds)*time.Second)

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	a.Store = store

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	a.MQConn = mqConn
	a.Cleaner = rabbitmqClient.NewAssetCleanupPublisher(mqConn, cfg.RabbitMQ.AssetCleanupQueue)

	cleanupWorker := worker.NewAssetCleanupWorker(mqConn, store, cfg.RabbitMQ.AssetCleanupQueue)
	if err := cleanupWorker.Start(ctx); err != nil {
		return fmt.Errorf("start asset cleanup worker failed: %w", err)
	}
	a.CleanupWorker = cleanupWorker

	logger.Info("dependencies ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("storage", cfg.Storage.Driver),
	)
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		return mysqlClient.New(ctx, cfg.MySQLDSN())
	case "postgres":
		return postgresClient.New(ctx, cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "local":
		return storage.NewLocalStore(cfg.LocalDir, cfg.PublicURL)
	case "s3":
		return storage.NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.CleanupWorker != nil {
		a.CleanupWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	logger.Sync()
	return closeErr
}
