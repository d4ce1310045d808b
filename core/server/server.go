package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"zoom-lms-api/core/cache"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/database"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/metrics"
	"zoom-lms-api/core/middleware"
	"zoom-lms-api/modules/auth"
	"zoom-lms-api/modules/livestream"
	ltclient "zoom-lms-api/modules/livestream/client"
	"zoom-lms-api/modules/meeting"
	mclient "zoom-lms-api/modules/meeting/client"
	meetingservice "zoom-lms-api/modules/meeting/service"
	meetingtask "zoom-lms-api/modules/meeting/task"
	"zoom-lms-api/modules/notification"
	notiftask "zoom-lms-api/modules/notification/task"
	"zoom-lms-api/modules/webhook"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Run wires the whole service together and blocks until shutdown: config,
// storage, queue worker, HTTP server.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel, cfg.Server.LogFormat)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.URL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisCache, err := cache.NewCache(cache.CacheConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to init cache: %w", err)
	}
	defer redisCache.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	zoomClient := mclient.NewZoomClient(cfg.Zoom, collector)
	ytClient := ltclient.NewYouTubeClient(cfg.Google, collector)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	mw := middleware.NewMiddleware()
	e.Use(mw.RateLimitMiddleware())

	e.GET("/metrics", metrics.Handler(registry))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Modules. Order matters only for the dependencies handed across.
	authModule := auth.Init(e, &db, redisCache, zoomClient, ytClient, mw)
	notificationModule := notification.Init(&db, asynqClient)
	meetingModule := meeting.Init(e, &db, zoomClient, authModule.Service, asynqClient, notificationModule.Service, mw)
	livestreamModule := livestream.Init(e, meetingModule.Repo, authModule.Service, ytClient, zoomClient, mw)
	webhook.Init(e, meetingModule.Repo, meetingModule.Service, livestreamModule.Service, notificationModule.Service, collector)

	worker := startWorker(redisOpt, cfg, meetingModule.Service)
	defer worker.Shutdown()

	// HTTP server with graceful shutdown.
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:Start:Error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server:Run:Shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

// startWorker boots the queue consumer for registration runs and
// notification emails.
func startWorker(redisOpt asynq.RedisClientOpt, cfg *config.Config, meetingSvc meetingservice.MeetingServiceInterface) *asynq.Server {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			constants.QueueHigh:    6,
			constants.QueueDefault: 3,
			constants.QueueLow:     1,
		},
		RetryDelayFunc: func(n int, err error, t *asynq.Task) time.Duration {
			if t.Type() == constants.TaskTypeMeetingStartEmail {
				return constants.EmailRetryDelay
			}
			return asynq.DefaultRetryDelayFunc(n, err, t)
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(constants.TaskTypeRegisterMeetingUsers, meetingtask.NewRegisterHandler(meetingSvc))
	mux.Handle(constants.TaskTypeMeetingStartEmail, notiftask.NewEmailHandler(cfg.LMS.PlatformName, nil))

	if err := srv.Start(mux); err != nil {
		logger.Error("Server:startWorker:Error", "error", err)
	}
	return srv
}
