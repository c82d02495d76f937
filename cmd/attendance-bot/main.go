package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/officeflow/attendance-bot/internal/api/http"
	"github.com/officeflow/attendance-bot/internal/api/http/handlers"
	"github.com/officeflow/attendance-bot/internal/auditlog"
	"github.com/officeflow/attendance-bot/internal/auth"
	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/internal/events"
	"github.com/officeflow/attendance-bot/internal/export"
	"github.com/officeflow/attendance-bot/internal/observability"
	"github.com/officeflow/attendance-bot/internal/persistence"
	"github.com/officeflow/attendance-bot/internal/policy"
	"github.com/officeflow/attendance-bot/internal/repository"
	"github.com/officeflow/attendance-bot/internal/service"
	"github.com/officeflow/attendance-bot/internal/session"
	"github.com/officeflow/attendance-bot/internal/transport/telegram"
	"github.com/officeflow/attendance-bot/internal/worker"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply store migrations and exit")
	noHTTP := pflag.Bool("no-http", false, "do not start the admin HTTP API")
	pflag.Parse()

	if *noHTTP {
		// Existing variables win over the env file, so this also skips credential checks.
		os.Setenv("HTTP_ENABLED", "false") //nolint:errcheck
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if err := run(cfg, logger, *migrateOnly, *noHTTP); err != nil {
		logger.Error("attendance bot stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger, migrateOnly, noHTTP bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loc, err := cfg.Policy.Location()
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	clock := policy.NewClock(loc, policy.WithBusinessHours(cfg.Policy.BusinessStart, cfg.Policy.BusinessEnd))

	if migrateOnly {
		cfg.Store.RunMigrations = true
	}
	store, err := repository.Open(ctx, cfg.Store, loc, logger)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck
	if migrateOnly {
		logger.Info("migrations applied")
		return nil
	}

	var redis *persistence.Redis
	var states session.StateStore
	switch cfg.Session.Backend {
	case "redis":
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		states = session.NewRedisStateStore(redis.Client, cfg.Session.TTL())
	default:
		states = session.NewMemoryStateStore(cfg.Session.TTL(), nil)
	}

	exporter, err := export.New(cfg.Report.Format)
	if err != nil {
		return err
	}
	audit, err := auditlog.NewWriter(cfg.Audit.Path)
	if err != nil {
		return err
	}

	bot, err := telegram.New(cfg.Telegram, logger)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewAsyncDispatcher(logger, cfg.Notify.Timeout())
	service.NewNotificationService(dispatcher, bot, cfg.Notify.ChatID, metrics, logger).RegisterHandlers()

	accounts := service.NewAccountService(service.AccountDependencies{
		Users:      store,
		Departures: store,
		Policy:     cfg.Policy,
		Clock:      clock,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ledger := service.NewLedgerService(service.LedgerDependencies{
		Users:      store,
		Departures: store,
		Clock:      clock,
		Audit:      audit,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	reports := service.NewReportService(service.ReportDependencies{
		Users:      store,
		Departures: store,
		Clock:      clock,
		Exporter:   exporter,
		Metrics:    metrics,
		Logger:     logger,
	})

	machine := session.NewMachine(session.Dependencies{
		States:   states,
		Accounts: accounts,
		Ledger:   ledger,
		Reports:  reports,
		Sender:   bot,
		Clock:    clock,
		Metrics:  metrics,
		Logger:   logger,
	})

	pool := worker.NewPool(cfg.Worker.Shards, cfg.Worker.QueueSize, machine.Handle, logger)
	pool.Start(context.WithoutCancel(ctx))

	var app *fiber.App
	if cfg.App.HTTPEnabled && !noHTTP {
		app = newAdminAPI(cfg, logger, metrics, store, redis, reports, clock)
		go func() {
			if err := app.Listen(cfg.App.Addr()); err != nil {
				logger.Error("fiber listen", zap.Error(err))
			}
		}()
	}

	logger.Info("attendance bot started",
		zap.String("store", cfg.Store.Driver),
		zap.String("sessions", cfg.Session.Backend),
		zap.Int("admins", len(cfg.Policy.AdminIDs)))

	if err := bot.Run(ctx, pool.Submit); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("telegram polling stopped", zap.Error(err))
	}
	logger.Info("shutting down")

	if app != nil {
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}
	pool.Close()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("pending notifications dropped", zap.Error(err))
	}
	return nil
}

func newAdminAPI(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
	store repository.Store,
	redis *persistence.Redis,
	reports *service.ReportService,
	clock *policy.Clock,
) *fiber.App {
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{Users: store, Logger: logger})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store)

	deps := map[string]handlers.Pinger{"store": store}
	if redis != nil {
		deps["redis"] = redis
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Reports:        handlers.NewReportsHandler(reports, clock.Now),
		AuthMiddleware: authMiddleware,
	})
	return app
}

func init() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}
}
