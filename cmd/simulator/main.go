package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/config/logger"
	postgres "github.com/AniketAslaliya/swe-fog-latency-optimization/config/storage/postgresql"
	redis "github.com/AniketAslaliya/swe-fog-latency-optimization/config/storage/redis"
	config "github.com/AniketAslaliya/swe-fog-latency-optimization/config/utils"
	prommetrics "github.com/AniketAslaliya/swe-fog-latency-optimization/internal/adapter/monitoring/prometheus"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/adapter/queue/rabbitmq"
	pgrepo "github.com/AniketAslaliya/swe-fog-latency-optimization/internal/adapter/storage/postgres"
	redisadapter "github.com/AniketAslaliya/swe-fog-latency-optimization/internal/adapter/storage/redis"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/service"
)

// _saveTimeout bounds the final run persist after the simulation ends
const _saveTimeout = 30 * time.Second

func main() {
	rootCtx, rootCtxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCtxCancel()

	// Init config
	appConfig := config.New()
	baseLogger := logger.Build(appConfig.Logger)
	zap.L().Debug("Logger Builded successfully")

	zap.L().Info("Starting the application", zap.String("app", appConfig.App.Name), zap.String("env", appConfig.App.Env), zap.String("owner", appConfig.App.Owner))

	opts := []service.Option{}

	// Init database service
	var dbService *postgres.DB
	if appConfig.DB.Enabled {
		dbLogger := baseLogger.Named("DB")
		var err error
		dbService, err = postgres.New(rootCtx, appConfig.DB, dbLogger)
		if err != nil {
			zap.L().Error("Error initializing database connection", zap.Error(err))
			os.Exit(1)
		}
		defer dbService.Close()
		zap.L().Info("Successfully connected to the database", zap.String("db", appConfig.DB.Connection))

		// Migrate database
		if err := dbService.Migrate(); err != nil {
			zap.L().Error("Error migrating database", zap.Error(err))
			os.Exit(1)
		}
		zap.L().Info("Successfully migrated the database")
	}

	// Init cache service
	if appConfig.Redis.Enabled {
		cacheService, err := redis.New(rootCtx, appConfig.Redis)
		if err != nil {
			zap.L().Error("Error initializing cache connection", zap.Error(err))
			os.Exit(1)
		}
		defer cacheService.Close()
		zap.L().Info("Successfully connected to the cache server", zap.String("address", appConfig.Redis.Addr))

		opts = append(opts, service.WithStatePublisher(
			redisadapter.NewStatePublisher(cacheService.Client, baseLogger.Named("Redis"))))
	}

	// Init event feed
	if appConfig.Queue.Enabled {
		publisher, err := rabbitmq.NewEventPublisher(appConfig.Queue.URL, appConfig.Queue.Exchange, baseLogger.Named("AMQP"))
		if err != nil {
			zap.L().Error("Error initializing queue connection", zap.Error(err))
			os.Exit(1)
		}
		defer publisher.Close()
		zap.L().Info("Successfully connected to the queue server", zap.String("exchange", appConfig.Queue.Exchange))

		opts = append(opts, service.WithEventSink(publisher))
	}

	// Init metrics endpoint
	if appConfig.Metrics.Enabled {
		recorder := prommetrics.NewRecorder()
		opts = append(opts, service.WithMetrics(recorder))

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", recorder.Handler())
			if err := http.ListenAndServe(appConfig.Metrics.Addr, mux); err != nil {
				zap.L().Error("Metrics endpoint stopped", zap.Error(err))
			}
		}()
		zap.L().Info("Metrics endpoint listening", zap.String("addr", appConfig.Metrics.Addr))
	}

	// Build the simulation engine
	sim, err := service.NewSimulator(*appConfig.Simulation, baseLogger.Named("Engine"), opts...)
	if err != nil {
		zap.L().Error("Error building simulator", zap.Error(err))
		os.Exit(1)
	}

	if err := sim.Start(rootCtx, appConfig.Simulation.Duration); err != nil {
		zap.L().Error("Error starting simulation", zap.Error(err))
		os.Exit(1)
	}

	// Wait for the run to finish or for a shutdown signal
	select {
	case <-sim.Done():
	case <-rootCtx.Done():
		zap.L().Info("Shutdown signal received, stopping simulation")
		if err := sim.Stop(); err != nil {
			zap.L().Warn("Error stopping simulation", zap.Error(err))
		}
	}

	result := sim.Result()
	zap.L().Info("Run summary",
		zap.Int("total_tasks", result.Summary.TotalTasks),
		zap.Int("completed", result.Summary.Completed),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("timed_out", result.Summary.TimedOut),
		zap.Float64("mean_response_time", result.Summary.MeanResponseTime),
		zap.Float64("mean_processing_time", result.Summary.MeanProcessingTime),
		zap.Float64("offloading_rate", result.Summary.OffloadingRate))

	// Persist the finished run
	if dbService != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), _saveTimeout)
		defer cancel()

		repo := pgrepo.NewRunRepository(dbService, baseLogger.Named("RunRepo"))
		if err := repo.SaveRun(saveCtx, result); err != nil {
			zap.L().Error("Error saving run", zap.Error(err))
			os.Exit(1)
		}
	}

	zap.L().Info("Graceful shutdown complete.")
}
