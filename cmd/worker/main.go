// Package main is the entry point for the learning platform worker.
//
// The worker owns the asynchronous side of the platform: it subscribes the
// event handlers to the dispatcher and processes user provisioning, study
// content generation, assignment grading, and course completion jobs.
// Delivery is at-least-once; every handler is idempotent.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rashid-RG/gemini-lms-sub003/config"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/eventhandler"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/adaptive"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/leaderboard"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/submission"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/external/gemini"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/messaging"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/postgres"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// Postgres when DATABASE_URL is set; in-memory otherwise (development).
	// ─────────────────────────────────────────────────────────────────────────
	var (
		creditRepo      credit.Repository
		courseRepo      course.Repository
		submissionRepo  submission.Repository
		adaptiveRepo    adaptive.Repository
		leaderboardRepo leaderboard.Repository
	)

	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")

		creditRepo = postgres.NewCreditRepository(dbConn)
		courseRepo = postgres.NewCourseRepository(dbConn)
		submissionRepo = postgres.NewSubmissionRepository(dbConn)
		adaptiveRepo = postgres.NewAdaptiveRepository(dbConn)
		leaderboardRepo = postgres.NewLeaderboardRepository(dbConn)
	} else {
		if cfg.IsProduction() {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		log.Warn("DATABASE_URL not set, using in-memory repositories")
		creditRepo = memory.NewCreditRepository()
		courseRepo = memory.NewCourseRepository()
		submissionRepo = memory.NewSubmissionRepository()
		adaptiveRepo = memory.NewAdaptiveRepository()
		leaderboardRepo = memory.NewLeaderboardRepository()
	}

	ledger := credit.NewLedger(creditRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. CACHE
	// ─────────────────────────────────────────────────────────────────────────
	var store cache.Store
	var redisStore *cache.RedisStore
	if cfg.Redis.Disabled {
		log.Info("redis disabled, using in-memory cache")
		store = cache.NewMemoryStore()
	} else {
		redisCfg := cache.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		rs, err := cache.NewRedisStore(redisCfg)
		if err != nil {
			log.Warn("failed to connect to redis, falling back to in-memory cache", "error", err)
			store = cache.NewMemoryStore()
		} else {
			log.Info("redis connection established", "host", cfg.Redis.Host)
			store = rs
			redisStore = rs
		}
	}
	defer func() {
		log.Info("closing cache store...")
		_ = store.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT PIPELINE
	// Redis Pub/Sub bus when Redis is available, so multiple worker instances
	// share the generation and grading queues; in-memory bus otherwise.
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log

	var eventBus shared.EventBus
	var closeBus func() error
	if redisStore != nil {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisStore.Client()),
			LocalBusConfig: busCfg,
			Logger:         log,
		})
		if err != nil {
			log.Warn("failed to start redis event bus, falling back to in-memory", "error", err)
		} else {
			log.Info("redis event bus started")
			eventBus = redisBus
			closeBus = redisBus.Close
		}
	}
	if eventBus == nil {
		memBus := messaging.NewInMemoryEventBus(busCfg)
		eventBus = memBus
		closeBus = memBus.Close
	}
	defer func() {
		log.Info("closing event bus...")
		_ = closeBus()
	}()

	dispatcherCfg := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherCfg.Logger = log
	dispatcherCfg.WorkerPoolSize = cfg.Dispatcher.WorkerPoolSize
	dispatcherCfg.RetryConfig.MaxRetries = cfg.Dispatcher.MaxRetries
	dispatcherCfg.RetryConfig.InitialBackoff = cfg.Dispatcher.InitialBackoff
	dispatcherCfg.RetryConfig.MaxBackoff = cfg.Dispatcher.MaxBackoff
	dispatcherCfg.DeadLetterQueueSize = cfg.Dispatcher.DeadLetterQueueSize
	dispatcher := messaging.NewDispatcher(dispatcherCfg)

	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	geminiCfg := gemini.DefaultClientConfig(cfg.Gemini.BaseURL, cfg.Gemini.APIKey)
	geminiCfg.Model = cfg.Gemini.Model
	geminiCfg.Timeout = cfg.Gemini.RequestTimeout
	geminiCfg.Logger = log
	geminiCfg.RateLimiterConfig.RequestsPerSecond = float64(cfg.Gemini.RateLimit) / 60.0
	geminiCfg.RateLimiterConfig.BurstSize = cfg.Gemini.RateLimitBurst
	geminiClient := gemini.NewClient(geminiCfg)

	notifier := service.NewBestEffortNotifier(service.NewLogNotifier(log), log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	onUserCreate := eventhandler.NewOnUserCreateHandler(creditRepo, ledger, log)
	onContentRequested := eventhandler.NewOnContentRequestedHandler(courseRepo, geminiClient, store, log)
	onGradeRequested := eventhandler.NewOnGradeRequestedHandler(
		courseRepo, submissionRepo, adaptiveRepo, geminiClient, notifier, log)
	onCourseCompleted := eventhandler.NewOnCourseCompletedHandler(
		courseRepo, leaderboardRepo, store, notifier, log)

	registrations := []struct {
		eventType shared.EventType
		name      string
		handler   shared.EventHandler
	}{
		{shared.EventUserCreate, "on_user_create", onUserCreate.Handle},
		{shared.EventStudyContent, "on_content_requested", onContentRequested.Handle},
		{shared.EventAssignmentGrade, "on_grade_requested", onGradeRequested.Handle},
		{shared.EventCourseCompleted, "on_course_completed", onCourseCompleted.Handle},
	}
	for _, reg := range registrations {
		if err := dispatcher.Register(reg.eventType, reg.name, reg.handler); err != nil {
			return fmt.Errorf("failed to register handler %s: %w", reg.name, err)
		}
	}

	// A generation job that exhausts its retries must leave the anchor in a
	// visible failed state, not pending forever.
	dispatcher.OnDeadLetter(func(entry messaging.DeadLetterEntry) {
		if entry.Event.EventType() != shared.EventStudyContent {
			return
		}
		evt, err := shared.DecodeEvent[shared.StudyContentRequestedEvent](entry.Event)
		if err != nil {
			log.Error("failed to decode dead-lettered content event", "error", err)
			return
		}
		reason := "generation retries exhausted"
		if entry.Error != nil {
			reason = entry.Error.Error()
		}
		if err := onContentRequested.MarkFailed(ctx, evt.ContentID, reason); err != nil {
			log.Error("failed to mark study content as failed",
				"content_id", evt.ContentID, "error", err)
		}
	})

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("worker is running",
		"handlers", len(registrations),
		"worker_pool_size", cfg.Dispatcher.WorkerPoolSize,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := dispatcher.Stop(); err != nil {
		log.Error("dispatcher stop failed", "error", err)
	}

	log.Info("shutdown completed")
	return nil
}

// setupLogger configures structured logging per the observability settings.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
