// Package main is the entry point of the placement hub API.
//
// The service follows Clean Architecture / DDD:
//   - Domain: users, applications and internships with their invariants
//   - Application: commands, queries and the acceptance saga
//   - Infrastructure: PostgreSQL, Redis, in-memory event bus
//   - Interface: REST API with cookie sessions
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pasantia-hub/placement-hub/config"
	"github.com/pasantia-hub/placement-hub/internal/application/command"
	"github.com/pasantia-hub/placement-hub/internal/application/eventhandler"
	"github.com/pasantia-hub/placement-hub/internal/application/query"
	"github.com/pasantia-hub/placement-hub/internal/application/saga"
	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/messaging"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/memory"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/postgres"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/redis"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/resilient"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/service"
	httpserver "github.com/pasantia-hub/placement-hub/internal/interface/http"
	"github.com/pasantia-hub/placement-hub/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
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
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting placement hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		users        user.Repository
		applications application.Repository
		internships  internship.Repository
		dbConn       *postgres.Connection
	)

	if cfg.Database.Disabled {
		log.Warn("database disabled, using in-memory stores")
		users = memory.NewUserRepository()
		applications = memory.NewApplicationRepository()
		internships = memory.NewInternshipRepository()
	} else {
		log.Info("connecting to database")
		if cfg.Database.URL != "" {
			dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		} else {
			dbConn, err = postgres.NewConnection(ctx, cfg.Database.PoolConfig())
		}
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		if cfg.Database.MigrateOnStart {
			log.Info("running database migrations")
			migrator := postgres.NewMigrator(dbConn)
			if err := migrator.Up(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		users = postgres.NewUserRepository(dbConn)
		applications = postgres.NewApplicationRepository(dbConn)
		internships = postgres.NewInternshipRepository(dbConn)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. IDEMPOTENCY STORE (Redis or in-memory)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		idempotency resilient.IdempotencyStore
		redisClient *goredis.Client
	)

	if cfg.Redis.Disabled {
		log.Warn("redis disabled, idempotency keys are per-instance only")
		idempotency = memory.NewIdempotencyStore()
	} else {
		log.Info("connecting to redis", logger.String("addr", cfg.Redis.ClientConfig().Addr()))
		redisClient, err = redis.NewClient(ctx, cfg.Redis.ClientConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			log.Info("closing redis connection")
			_ = redisClient.Close()
		}()
		idempotency = redis.NewIdempotencyStore(redisClient, redis.IdempotencyStoreOptions{})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. RESILIENCE GUARDS
	// Retries and circuit breaking wrap every external store. Domain
	// outcomes pass through untouched.
	// ─────────────────────────────────────────────────────────────────────────
	dbGuard := resilient.NewGuard("postgres", log)
	idemGuard := resilient.NewGuard("redis", log)

	users = resilient.NewUserRepository(users, dbGuard)
	applications = resilient.NewApplicationRepository(applications, dbGuard)
	internships = resilient.NewInternshipRepository(internships, dbGuard)
	idempotency = resilient.NewIdempotencyStore(idempotency, idemGuard)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	if err := eventhandler.NewOnApplicationDecidedHandler(log).Subscribe(eventBus); err != nil {
		return fmt.Errorf("failed to subscribe decision handler: %w", err)
	}
	if err := eventhandler.NewOnInternshipCompletedHandler(log).Subscribe(eventBus); err != nil {
		return fmt.Errorf("failed to subscribe internship handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	idGenerator := service.NewIDGenerator()

	registerUser := command.NewRegisterUserHandler(users, idGenerator)
	authenticateUser := command.NewAuthenticateUserHandler(users)
	submitApplication := command.NewSubmitApplicationHandler(applications, users, idempotency, idGenerator, eventBus)
	reviewApplication := command.NewReviewApplicationHandler(applications, users, eventBus)
	logHours := command.NewLogHoursHandler(internships, idempotency, eventBus)
	acceptanceFlow := saga.NewAcceptanceFlow(applications, internships, users, idempotency, idGenerator, eventBus, log)

	studentDashboard := query.NewGetStudentDashboardHandler(applications, internships)
	pendingReviews := query.NewGetPendingReviewsHandler(applications, users)
	companyBoard := query.NewGetCompanyBoardHandler(applications, internships, users)
	internshipProgress := query.NewGetInternshipProgressHandler(internships)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.SessionSecret = cfg.HTTP.SessionSecret
	httpConfig.SessionMaxAge = cfg.HTTP.SessionMaxAge
	httpConfig.SecureCookies = cfg.HTTP.SecureCookies

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		RegisterUser:       registerUser,
		AuthenticateUser:   authenticateUser,
		SubmitApplication:  submitApplication,
		ReviewApplication:  reviewApplication,
		LogHours:           logHours,
		AcceptanceFlow:     acceptanceFlow,
		StudentDashboard:   studentDashboard,
		PendingReviews:     pendingReviews,
		CompanyBoard:       companyBoard,
		InternshipProgress: internshipProgress,
		Logger:             log,
		HealthChecker:      newHealthChecker(dbConn, redisClient),
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 9. START AND GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", logger.String("address", server.Address()))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown", logger.String("timeout", cfg.App.ShutdownTimeout.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.AddCaller = cfg.Observability.LogCaller
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// healthChecker probes the backing stores for the health endpoints.
// Nil connections report healthy since the in-memory fallbacks have
// nothing to probe.
type healthChecker struct {
	db    *postgres.Connection
	redis *goredis.Client
}

func newHealthChecker(db *postgres.Connection, rc *goredis.Client) *healthChecker {
	return &healthChecker{db: db, redis: rc}
}

func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy: true,
		Ready:   true,
		Checks:  make(map[string]string),
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status.Ready = false
			status.Checks["postgres"] = err.Error()
		} else {
			status.Checks["postgres"] = "ok"
		}
	} else {
		status.Checks["postgres"] = "in-memory"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status.Ready = false
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	} else {
		status.Checks["redis"] = "in-memory"
	}

	if !status.Ready {
		status.Message = "one or more backing stores are unreachable"
	}
	return status
}
