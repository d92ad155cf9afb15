// Package main is the entry point for the Career Guidance Hub API server.
//
// The service helps school students choose a career path: it tracks
// test scores over time, classifies a 31-question career survey into
// one of six domains, and asks an external language model for written
// guidance grounded in the student's own numbers.
//
// The architecture follows Clean Architecture and DDD:
//   - Domain: pure business logic without external dependencies
//   - Application: use case orchestration (Commands/Queries)
//   - Infrastructure: repositories, caches, external APIs
//   - Interface: HTTP REST endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guidance-hub/career-guidance-hub/config"
	"github.com/guidance-hub/career-guidance-hub/internal/application/command"
	"github.com/guidance-hub/career-guidance-hub/internal/application/query"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
	"github.com/guidance-hub/career-guidance-hub/internal/infrastructure/external/groq"
	"github.com/guidance-hub/career-guidance-hub/internal/infrastructure/messaging"
	"github.com/guidance-hub/career-guidance-hub/internal/infrastructure/persistence/postgres"
	"github.com/guidance-hub/career-guidance-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/guidance-hub/career-guidance-hub/internal/interface/http"
	"github.com/guidance-hub/career-guidance-hub/internal/interface/http/handlers"
	"github.com/guidance-hub/career-guidance-hub/pkg/logger"
	"github.com/guidance-hub/career-guidance-hub/pkg/retry"
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
	log.Info("starting Career Guidance Hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")

	var dbConn *postgres.Connection
	connRetrier := retry.New(
		retry.WithMaxAttempts(5),
		retry.WithRetryIf(func(error) bool { return true }),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database connection failed, retrying",
				"attempt", attempt, "delay", delay.String(), "error", err)
		}),
	)
	err = connRetrier.Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	})
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
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", "error", err)
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed", "applied", appliedCount, "total", len(status))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (sessions + caches)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var sessionStore *redis.SessionStore
	var studentCache *redis.StudentCache
	var guidanceCache *redis.GuidanceCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisCache.Close()

		sessionStore = redis.NewSessionStore(redisCache)
		studentCache = redis.NewStudentCache(redisCache)
		guidanceCache = redis.NewGuidanceCache(redisCache)
		log.Info("Redis connection established")
	} else {
		// Without Redis there are no sessions, so the API serves only
		// public endpoints. Acceptable for local smoke tests, not prod.
		log.Warn("Redis disabled: sessions, student cache and guidance cache unavailable")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	studentRepo := postgres.NewStudentRepository(dbConn)
	scoreRepo := postgres.NewScoreRepository(dbConn)
	surveyRepo := postgres.NewSurveyRepository(dbConn)
	guidanceRepo := postgres.NewGuidanceRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS & LISTENERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	var cacheInvalidator messaging.GuidanceTextInvalidator
	if guidanceCache != nil {
		cacheInvalidator = guidanceCache
	}
	failureMonitor, err := messaging.RegisterListeners(eventBus, cacheInvalidator, log)
	if err != nil {
		return fmt.Errorf("failed to register event listeners: %w", err)
	}
	log.Info("event listeners registered", "guidance_failures_tracked", failureMonitor != nil)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GUIDANCE GENERATOR (Groq)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing guidance generator...", "model", cfg.Groq.Model)

	groqConfig := groq.DefaultClientConfig(cfg.Groq.APIKey)
	groqConfig.BaseURL = cfg.Groq.BaseURL
	groqConfig.Model = cfg.Groq.Model
	groqConfig.Temperature = cfg.Groq.Temperature
	groqConfig.MaxTokens = cfg.Groq.MaxTokens
	groqConfig.Timeout = cfg.Groq.RequestTimeout
	groqConfig.RateLimiterConfig.RequestsPerSecond = float64(cfg.Groq.RateLimit)
	groqConfig.RateLimiterConfig.BurstSize = cfg.Groq.RateLimitBurst
	groqConfig.CircuitBreakerConfig.FailureThreshold = cfg.Groq.CircuitBreakerThreshold
	groqConfig.CircuitBreakerConfig.Timeout = cfg.Groq.CircuitBreakerTimeout
	groqConfig.CircuitBreakerConfig.HalfOpenMaxRetries = cfg.Groq.CircuitBreakerHalfOpenMax
	groqConfig.Logger = log
	groqConfig.Debug = cfg.App.Debug

	groqClient := groq.NewClient(groqConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER (Commands & Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	// Interface-typed views of the optional Redis components. Assigning a
	// nil *redis pointer directly would produce a non-nil interface and
	// defeat every nil guard downstream.
	var profileCache student.Cache
	if studentCache != nil {
		profileCache = studentCache
	}

	registerCmd := command.NewRegisterStudentHandler(studentRepo, eventBus)

	// Session-backed handlers stay nil without Redis; the HTTP layer
	// answers 503 for them instead of half-working auth.
	var loginCmd *command.LoginStudentHandler
	var logoutCmd *command.LogoutStudentHandler
	if sessionStore != nil {
		loginCmd = command.NewLoginStudentHandler(studentRepo, sessionStore)
		logoutCmd = command.NewLogoutStudentHandler(sessionStore)
	}

	updateProfileCmd := command.NewUpdateProfileHandler(studentRepo, profileCache, eventBus)
	recordScoreCmd := command.NewRecordTestScoreHandler(studentRepo, scoreRepo, eventBus)
	submitSurveyCmd := command.NewSubmitSurveyHandler(surveyRepo, eventBus)
	requestGuidanceCmd := command.NewRequestGuidanceHandler(studentRepo, scoreRepo, guidanceRepo, groqClient, eventBus)
	if guidanceCache != nil && cfg.Features.GuidanceCacheEnabled(nil) {
		requestGuidanceCmd = requestGuidanceCmd.WithCache(guidanceCache)
	}

	profileQuery := query.NewGetProfileHandler(studentRepo, profileCache)
	scoreHistoryQuery := query.NewGetScoreHistoryHandler(studentRepo, scoreRepo)
	trendReportQuery := query.NewGetTrendReportHandler(studentRepo, scoreRepo)
	surveyResultQuery := query.NewGetSurveyResultHandler(surveyRepo)
	guidanceHistoryQuery := query.NewGetGuidanceHistoryHandler(guidanceRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}
	healthChecker.AddCheck("guidance_generator", handlers.NewGeneratorCheck(groqClient))

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	httpDeps := httpserver.Dependencies{
		RegisterStudentHandler: registerCmd,
		LoginStudentHandler:    loginCmd,
		LogoutStudentHandler:   logoutCmd,
		UpdateProfileHandler:   updateProfileCmd,
		RecordTestScoreHandler: recordScoreCmd,
		SubmitSurveyHandler:    submitSurveyCmd,
		RequestGuidanceHandler: requestGuidanceCmd,

		GetProfileHandler:         profileQuery,
		GetScoreHistoryHandler:    scoreHistoryQuery,
		GetTrendReportHandler:     trendReportQuery,
		GetSurveyResultHandler:    surveyResultQuery,
		GetGuidanceHistoryHandler: guidanceHistoryQuery,

		Logger: logger.New(logger.Options{
			Output: os.Stdout,
			Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		}),
		HealthChecker: healthChecker,
	}
	if sessionStore != nil {
		httpDeps.SessionStore = sessionStore
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. START & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Career Guidance Hub is running", "http_address", httpServer.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus and connections close via defer.
	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures structured logging for the process.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug || cfg.Observability.LogLevel == "debug" {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
