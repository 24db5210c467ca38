package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velta-dev/afisha-bot/internal/bot"
	"github.com/velta-dev/afisha-bot/internal/catalog"
	"github.com/velta-dev/afisha-bot/internal/database"
	apperrors "github.com/velta-dev/afisha-bot/internal/errors"
	"github.com/velta-dev/afisha-bot/internal/event"
	"github.com/velta-dev/afisha-bot/internal/health"
	"github.com/velta-dev/afisha-bot/internal/idempotency"
	"github.com/velta-dev/afisha-bot/internal/jobs"
	"github.com/velta-dev/afisha-bot/internal/lifecycle"
	"github.com/velta-dev/afisha-bot/internal/middleware"
	"github.com/velta-dev/afisha-bot/internal/ratelimit"
	"github.com/velta-dev/afisha-bot/internal/registration"
	"github.com/velta-dev/afisha-bot/internal/repository"
	"github.com/velta-dev/afisha-bot/internal/state"
	"github.com/velta-dev/afisha-bot/internal/user"
	"github.com/velta-dev/afisha-bot/internal/usercache"
	"github.com/velta-dev/afisha-bot/pkg/config"
	"github.com/velta-dev/afisha-bot/pkg/graceful"
	"github.com/velta-dev/afisha-bot/pkg/logger"
	"github.com/velta-dev/afisha-bot/pkg/metrics"
	pkgredis "github.com/velta-dev/afisha-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	log.Info("starting afisha bot", slog.String("env", cfg.AppEnv))

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.AppEnv}); err != nil {
			log.Error("sentry init failed", slog.Any("error", err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis is optional: without it the FSM runs on the in-memory
	// storage and caching, rate limiting, and background jobs are off.
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.New(ctx, pkgredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	var storage state.Storage
	if redisClient != nil {
		storage = state.NewRedisStorage(redisClient.Client, log, cfg.Session.TTL)
	} else {
		storage = state.NewMemoryStorage()
	}

	var fsm state.StateMachine
	if redisClient != nil {
		fsm = state.NewStateMachine(storage, log, redisClient.Client)
	} else {
		fsm = state.NewStateMachine(storage, log, nil)
	}

	sessionCleaner := state.NewCleaner(storage, log, cfg.Session.TTL, cfg.Session.CleanupInterval)
	go sessionCleaner.Run(ctx)

	userRepo := repository.NewUserRepository(db, log)
	eventRepo := repository.NewEventRepository(db, log)
	regRepo := repository.NewRegistrationRepository(db, log)

	var profileCache user.ProfileCache
	if redisClient != nil {
		profileCache = usercache.NewCache(pkgredis.NewMetricsClient(redisClient))
	}

	userSvc := user.NewService(userRepo, profileCache, cfg.Bot.AdminID, log)
	catalogSvc := catalog.NewService(eventRepo, log)
	regManager := registration.NewManager(eventRepo, regRepo, log)
	eventSvc := event.NewService(eventRepo, regRepo, log)

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	var rateLimiter *middleware.RateLimitMiddleware
	rules := ratelimit.NewRules(cfg.RateLimit)
	if cfg.RateLimit.Enabled && redisClient != nil {
		limiter := ratelimit.NewAdaptiveLimiter(
			ratelimit.NewRedisLimiter(redisClient.Client, log),
			ratelimit.NewMemoryLimiter(log),
			log,
		)
		rateLimiter = middleware.NewRateLimitMiddleware(limiter, rules, log)

		rlCleaner := ratelimit.NewCleaner(redisClient.Client, log, 10*time.Minute)
		go rlCleaner.Run(ctx)
	}

	var idemManager idempotency.Manager
	if redisClient != nil {
		idemManager = idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)

		idemCleaner := idempotency.NewCleaner(redisClient.Client, log, time.Hour)
		go idemCleaner.Run(ctx)
	}

	config.Watch(v, log, func(updated *config.Config) {
		rules.Update(updated.RateLimit)
	})

	tgBot, err := bot.New(*cfg, bot.Dependencies{
		Log:           log,
		Users:         userSvc,
		UserRepo:      userRepo,
		Catalog:       catalogSvc,
		Events:        eventSvc,
		Registrations: regManager,
		FSM:           fsm,
		ErrHandler:    errHandler,
		RateLimiter:   rateLimiter,
		Idempotency:   idemManager,
	})
	if err != nil {
		log.Error("failed to create bot", slog.Any("error", err))
		os.Exit(1)
	}

	shutdown := lifecycle.NewShutdown(log)

	if redisClient != nil {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		worker := jobs.NewWorker(redisOpt, map[string]int{
			jobs.QueueCritical: 6,
			jobs.QueueDefault:  3,
			jobs.QueueLow:      1,
		}, log)
		worker.RegisterHandler(jobs.TaskTypeCleanupData, jobs.NewCleanupHandler(eventRepo, log))
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("jobs worker failed", slog.Any("error", err))
			}
		}()

		scheduler := jobs.NewScheduler(redisOpt, cfg.Events.RetainPast, log)
		if err := scheduler.RegisterTasks(); err != nil {
			log.Error("failed to register scheduled tasks", slog.Any("error", err))
		} else {
			scheduler.Run()
		}

		queue := jobs.NewManager(redisOpt, log)
		if task, err := jobs.NewCleanupDataTask(cfg.Events.RetainPast); err == nil {
			// Run one sweep at boot so a long-stopped instance catches up.
			if _, err := queue.Enqueue(ctx, task); err != nil {
				log.Warn("failed to enqueue startup cleanup", slog.Any("error", err))
			}
		}

		shutdown.Register("jobs", func(context.Context) error {
			scheduler.Shutdown()
			worker.Shutdown()
			return queue.Close()
		})
	}

	collector := metrics.NewStateCollector(fsm)
	go collector.Run(ctx)

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))

	srv := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: middleware.New(log)(httpMux(checker, lifecycle.NewProbes(log))),
	}, cfg.Server.ShutdownTimeout)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("http server stopped with error", slog.Any("error", err))
		}
	}()

	shutdown.Register("bot", func(context.Context) error {
		tgBot.Stop()
		return nil
	})

	go tgBot.Start()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}
}

func httpMux(checker *health.Checker, probes lifecycle.HealthChecker) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())

		status := http.StatusOK
		for _, result := range results {
			if result != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	})

	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Liveness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Readiness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
