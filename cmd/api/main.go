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

	"fintrack/internal/app"
	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/lock"
	"fintrack/internal/logger"
	"fintrack/internal/notify"
	"fintrack/internal/validator"
)

// @title           FinTrack API
// @version         1.0
// @description     FinTrack tracks income, expenses, budgets, savings and goals, and alerts administrators when budgets are exceeded.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.InitWithFile(os.Getenv("ENV"), os.Getenv("LOG_FILE"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations("migrations"); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	notifier, closeNotifier, err := notify.New(notify.Options{
		Driver: appConfig.NotifyDriver,
		SMTP: notify.SMTPConfig{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.SMTPFrom,
		},
		AMQP: notify.AMQPConfig{URL: appConfig.AMQPURL, Queue: appConfig.AMQPQueue},
	})
	if err != nil {
		return fmt.Errorf("failed to set up notifications: %w", err)
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			log.Warnw("failed to close notifier", "error", err)
		}
	}()

	var locker lock.Locker = lock.Nop{}
	if appConfig.RedisAddr != "" {
		redisLocker, err := lock.NewRedisLocker(context.Background(), appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	application, err := app.New(appConfig, dbManager.DB(), app.Options{Notifier: notifier, Locker: locker})
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}

	application.Scheduler.Start()
	log.Infow("scheduler started", "jobs", application.Scheduler.Jobs(), "enabled", appConfig.SchedulerEnabled)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting FinTrack backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server shutdown failed", "error", err)
	}
	if err := application.Scheduler.Stop(shutdownCtx); err != nil {
		log.Errorw("scheduler did not stop cleanly", "error", err)
	}
	log.Info("server stopped")
	return nil
}
