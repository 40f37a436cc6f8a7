package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orgalerts/bootstrap"
	"orgalerts/config"
	"orgalerts/cron"
	"orgalerts/handlers"
	"orgalerts/routes"
	"orgalerts/services/alerts"
	"orgalerts/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	app, err := bootstrap.Build(rootCtx, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize services: %v", err)
	}
	defer app.Close()

	app.Health.Start(rootCtx, 30*time.Second)

	// Background processing.
	worker := cron.NewAlertWorker(bootstrap.QueueRedisOpt(), config.AppConfig.WorkerConcurrency,
		alerts.LeaseTTL(config.AppConfig.PipelineTimeout), app.Alerts, app.Pipeline, logger.Named("worker"))
	worker.Start()

	poller, err := cron.NewScheduledRunner(config.AppConfig.ScheduledPollSpec, app.Executor, logger.Named("scheduler"), config.AppConfig.PipelineTimeout)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	poller.Start()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := &handlers.HandlerBundle{
		Alerts:      handlers.NewAlertHandler(app.Alerts, app.Publisher, app.Pipeline),
		Scheduled:   handlers.NewScheduledAlertHandler(app.Scheduled, app.Alerts),
		Preferences: handlers.NewPreferenceHandler(app.Preferences),
		Callables:   handlers.NewCallableHandler(app.Admin),
		Health:      app.Health,
	}
	routes.RegisterRoutes(router, handlerBundle, config.AppConfig.MaxRequestsPerMin)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	poller.Stop(ctx)
	worker.Shutdown()
	stop()

	logger.Info("main: server stopped gracefully")
}
