// Package bootstrap connects the backends and assembles the services shared by
// the API server and the alertctl command.
package bootstrap

import (
	"context"
	"fmt"

	"orgalerts/config"
	"orgalerts/database"
	"orgalerts/database/repository"
	"orgalerts/services/admin"
	"orgalerts/services/alerts"
	"orgalerts/services/notification"
	"orgalerts/services/preferences"
	"orgalerts/services/scheduled"
	"orgalerts/services/tasks"
	"orgalerts/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// App holds every long-lived client and service.
type App struct {
	Logger *zap.Logger

	Mongo      *mongo.Client
	Cache      *redis.Client
	QueueRedis *redis.Client
	Queue      *asynq.Client

	Users     repository.UserRepository
	Followers repository.FollowerRepository
	Legacy    repository.LegacyFollowerRepository
	Alerts    repository.AlertRepository
	Scheduled repository.ScheduledAlertRepository

	Preferences *preferences.DefaultStore
	Notifier    *notification.DefaultNotificationService
	Pipeline    *alerts.Pipeline
	Publisher   *tasks.Publisher
	Executor    *scheduled.Executor
	Admin       *admin.DefaultAdminService
	Health      *utils.HealthMonitor
}

// QueueRedisOpt is the asynq connection for the alert task queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// Build connects MongoDB, Redis and FCM and wires the services. MongoDB is
// required; a missing Redis cache disables the dispatch guard and a missing
// FCM client makes every send fail.
func Build(ctx context.Context, logger *zap.Logger) (*App, error) {
	cfg := config.AppConfig
	a := &App{Logger: logger}

	client, db, err := database.Connect(ctx)
	if err != nil {
		return nil, err
	}
	a.Mongo = client
	logger.Info("connected to MongoDB", zap.String("database", cfg.DatabaseName))

	var guard alerts.IdempotencyGuard
	if cache, err := utils.NewCacheClient(ctx); err != nil {
		logger.Warn("redis cache unavailable, dispatch guard disabled", zap.Error(err))
	} else {
		a.Cache = cache
		guard = alerts.NewRedisGuard(cache, alerts.LeaseTTL(cfg.PipelineTimeout))
	}
	a.QueueRedis = utils.NewQueueMonitorClient()
	a.Queue = asynq.NewClient(QueueRedisOpt())

	var sender notification.Sender
	fcmConfigured := true
	if fcm, err := utils.NewFCMClient(ctx); err != nil {
		if config.IsProduction() {
			a.Close()
			return nil, err
		}
		logger.Warn("firebase messaging unavailable, pushes will fail", zap.Error(err))
		sender = notification.NewUnconfiguredSender()
		fcmConfigured = false
	} else {
		sender = fcm
	}

	a.Users = repository.NewMongoUserRepo(db)
	a.Followers = repository.NewMongoFollowerRepo(db)
	a.Legacy = repository.NewMongoLegacyFollowerRepo(db)
	a.Alerts = repository.NewMongoAlertRepo(db)
	a.Scheduled = repository.NewMongoScheduledAlertRepo(db)

	if a.Preferences, err = preferences.NewDefaultStore(a.Followers); err != nil {
		a.Close()
		return nil, err
	}
	a.Notifier, err = notification.NewDefaultNotificationService(
		sender, a.Users, logger.Named("notification"), cfg.DispatchConcurrency, cfg.MinTokenLength)
	if err != nil {
		a.Close()
		return nil, err
	}

	pipelineLogger := logger.Named("pipeline")
	a.Pipeline, err = alerts.NewPipeline(alerts.PipelineConfig{
		Followers: alerts.NewFollowerResolver(a.Followers),
		Filter:    alerts.NewEligibilityFilter(a.Preferences, pipelineLogger, cfg.FanoutConcurrency),
		Tokens:    alerts.NewTokenResolver(a.Users, pipelineLogger, cfg.FanoutConcurrency, cfg.MinTokenLength),
		Notifier:  a.Notifier,
		Status:    alerts.NewStatusWriter(a.Alerts, pipelineLogger),
		Guard:     guard,
		Logger:    pipelineLogger,
		Timeout:   cfg.PipelineTimeout,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Publisher = tasks.NewPublisher(a.Queue, cfg.DedupTTL)
	a.Executor, err = scheduled.NewExecutor(a.Scheduled, a.Alerts, a.Publisher, logger.Named("scheduled"), cfg.ScheduledBatchSize)
	if err != nil {
		a.Close()
		return nil, err
	}

	redisClients := []*redis.Client{a.QueueRedis}
	if a.Cache != nil {
		redisClients = append(redisClients, a.Cache)
	}
	a.Health = utils.NewHealthMonitor(redisClients, a.Mongo)

	a.Admin, err = admin.NewDefaultAdminService(a.Users, a.Followers, a.Legacy, a.Notifier, a.Health, admin.Settings{
		Env:                 cfg.Env,
		FirebaseProjectID:   cfg.FirebaseProjectID,
		FirebaseConfigured:  fcmConfigured,
		MinTokenLength:      cfg.MinTokenLength,
		FanoutConcurrency:   cfg.FanoutConcurrency,
		DispatchConcurrency: cfg.DispatchConcurrency,
	}, logger.Named("admin"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return a, nil
}

// Close releases every client. It is safe on a partially built App.
func (a *App) Close() {
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	if a.QueueRedis != nil {
		_ = a.QueueRedis.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(context.Background()); err != nil {
			a.Logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}
}
