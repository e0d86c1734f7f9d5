package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/groovoo/service-desk/internal/api/http"
	"github.com/groovoo/service-desk/internal/api/http/handlers"
	"github.com/groovoo/service-desk/internal/auth"
	"github.com/groovoo/service-desk/internal/config"
	"github.com/groovoo/service-desk/internal/events"
	"github.com/groovoo/service-desk/internal/observability"
	"github.com/groovoo/service-desk/internal/persistence"
	"github.com/groovoo/service-desk/internal/repository"
	"github.com/groovoo/service-desk/internal/repository/memory"
	"github.com/groovoo/service-desk/internal/service"
	"github.com/groovoo/service-desk/internal/storage"
	"github.com/groovoo/service-desk/internal/worker"
)

type repositories struct {
	users         repository.UserRepository
	tickets       repository.TicketRepository
	comments      repository.CommentRepository
	attachments   repository.AttachmentRepository
	statusChanges repository.StatusChangeRepository
	transactor    repository.Transactor
}

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, redisUp := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var revocations auth.RevocationList
	if redisUp {
		revocations = auth.NewRedisRevocationList(redis.Client)
	} else {
		logger.Warn("redis unavailable; token revocation is process-local")
		revocations = auth.NewMemoryRevocationList()
	}

	repos := buildRepositories(pg)

	blobs, err := storage.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    repos.users,
		Revocations: revocations,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     repos.tickets,
		CommentRepo:    repos.comments,
		AttachmentRepo: repos.attachments,
		HistoryRepo:    repos.statusChanges,
		Transactor:     repos.transactor,
		Blobs:          blobs,
		AllowList:      storage.NewAllowList(cfg.Upload.AllowedExtensions),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	dashboardService := service.NewDashboardService(repos.tickets)
	exportService := service.NewExportService(repos.tickets, nil)

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, cfg.Upload.MaxBodyBytes)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Export:         handlers.NewExportHandler(exportService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.Resolver()),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if !pg.Configured() {
		store := memory.NewStore()
		return repositories{
			users:         store.Users(),
			tickets:       store.Tickets(),
			comments:      store.Comments(),
			attachments:   store.Attachments(),
			statusChanges: store.StatusChanges(),
			transactor:    store.Transactor(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		users:         repository.NewUserRepository(pool),
		tickets:       repository.NewTicketRepository(pool),
		comments:      repository.NewCommentRepository(pool),
		attachments:   repository.NewAttachmentRepository(pool),
		statusChanges: repository.NewStatusChangeRepository(pool),
		transactor:    repository.NewTransactor(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
