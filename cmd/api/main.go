package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/kidsact/admin-console/internal/api/http"
	"github.com/kidsact/admin-console/internal/api/http/handlers"
	"github.com/kidsact/admin-console/internal/auth"
	"github.com/kidsact/admin-console/internal/config"
	"github.com/kidsact/admin-console/internal/directory"
	"github.com/kidsact/admin-console/internal/events"
	"github.com/kidsact/admin-console/internal/observability"
	"github.com/kidsact/admin-console/internal/persistence"
	"github.com/kidsact/admin-console/internal/queue"
	"github.com/kidsact/admin-console/internal/repository"
	"github.com/kidsact/admin-console/internal/service"
	"github.com/kidsact/admin-console/internal/worker"
)

const notificationQueueSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.Pool()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, os.DirFS(persistence.DefaultMigrationsDir), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var forward events.EventHandler
	if cfg.Broker.URL != "" {
		publisher := queue.NewPublisher(cfg.Broker, logger)
		defer publisher.Close()
		forward = publisher.Handle
	} else {
		logger.Info("BROKER_URL not set; events stay in process")
	}
	notifications := worker.StartNotificationWorker(dispatcher, logger, forward, notificationQueueSize)
	defer notifications.Stop()

	repos := repository.NewRepositories(pool)
	store := repository.NewStore(pool)
	labelRepo := repository.NewFeedbackLabelRepository(pool)
	userDirectory := directory.NewCached(repos.Users, redis.CacheClient(), cfg.Directory.CacheTTL(), logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     repos.Users,
		TokenManager: tokens,
		Directory:    userDirectory,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:       store,
		TicketRepo:  repos.Tickets,
		HistoryRepo: repos.History,
		Dispatcher:  dispatcher,
	})
	reviewService := service.NewReviewService(service.ReviewDependencies{
		Store:      store,
		Directory:  userDirectory,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		OrganizationRepo:  repos.Organizations,
		FeedbackLabelRepo: labelRepo,
		UserRepo:          repos.Users,
		Directory:         userDirectory,
		Dispatcher:        dispatcher,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var redisCheck handlers.Pinger
	if redis.CacheClient() != nil {
		redisCheck = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisCheck, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AdminTickets:   handlers.NewAdminTicketsHandler(ticketService, reviewService),
		Users:          handlers.NewUsersHandler(authService, adminService),
		Reference:      handlers.NewReferenceHandler(adminService),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
