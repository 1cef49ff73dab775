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

	httptransport "github.com/cleantrack/cleantrack-api/internal/api/http"
	"github.com/cleantrack/cleantrack-api/internal/api/http/handlers"
	"github.com/cleantrack/cleantrack-api/internal/auth"
	"github.com/cleantrack/cleantrack-api/internal/cache"
	"github.com/cleantrack/cleantrack-api/internal/config"
	"github.com/cleantrack/cleantrack-api/internal/events"
	"github.com/cleantrack/cleantrack-api/internal/mailer"
	"github.com/cleantrack/cleantrack-api/internal/observability"
	"github.com/cleantrack/cleantrack-api/internal/persistence"
	"github.com/cleantrack/cleantrack-api/internal/repository"
	"github.com/cleantrack/cleantrack-api/internal/scoring"
	"github.com/cleantrack/cleantrack-api/internal/service"
	"github.com/cleantrack/cleantrack-api/internal/storage"
	"github.com/cleantrack/cleantrack-api/internal/worker"
	"github.com/cleantrack/cleantrack-api/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.Files, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	mail := mailer.New(cfg.Mail, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	photos, err := storage.NewLocalPhotoStore(cfg.Storage, cfg.App.PublicURL, logger)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	// Only a configured scorer goes into the interface; a nil pointer would
	// not compare equal to nil.
	var scorer scoring.Scorer
	if s := scoring.NewOpenRouterScorer(cfg.Scorer, logger); s != nil {
		scorer = s
	} else {
		logger.Warn("scorer api key not set; tickets get the neutral urgency score")
	}
	scoringWorker := worker.NewScoringWorker(ticketRepo, scorer, cfg.Scorer.Timeout(), metrics, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: userRepo,
		RoomRepo: roomRepo,
		Tokens:   tokens,
		Mailer:   mail,
		Logger:   logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    ticketRepo,
		UserRepo:      userRepo,
		Photos:        photos,
		Scoring:       scoringWorker,
		Dispatcher:    dispatcher,
		MaxPhotoBytes: cfg.Storage.MaxBytes,
		Logger:        logger,
	})
	roomService := service.NewRoomService(roomRepo, userRepo, logger)
	ratingsCache := cache.NewRatingsCache(redis.Client, cfg.Redis.CacheTTL(), logger)
	ratingService := service.NewRatingService(ratingRepo, roomService, ratingsCache, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, userRepo, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, userRepo, mail, logger)
	notificationService.RegisterHandlers()
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		UserRepo:      userRepo,
		Rooms:         roomService,
		Tickets:       ticketService,
		Ratings:       ratingService,
		Announcements: announcementService,
	})
	reportService := service.NewReportService(ticketService)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
		// Leave headroom for the other multipart fields.
		BodyLimit: int(cfg.Storage.MaxBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowedOrigin:  cfg.App.AllowedOrigin,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth: handlers.NewAuthHandler(authService),
		Student: handlers.NewStudentHandler(handlers.StudentHandlerDependencies{
			Dashboard:     dashboardService,
			Rooms:         roomService,
			Ratings:       ratingService,
			Announcements: announcementService,
		}),
		Tickets: handlers.NewTicketsHandler(ticketService),
		Caretaker: handlers.NewCaretakerHandler(handlers.CaretakerHandlerDependencies{
			Tickets:       ticketService,
			Ratings:       ratingService,
			Announcements: announcementService,
			Dashboard:     dashboardService,
			Reports:       reportService,
		}),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics.Handler(),
		UploadDir:      photos.Dir(),
		UploadPrefix:   cfg.Storage.URLPrefix,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	if err := scoringWorker.Shutdown(drainCtx); err != nil {
		logger.Warn("scoring tasks still running at shutdown", zap.Error(err))
	}
	if err := notificationService.Drain(drainCtx); err != nil {
		logger.Warn("announcement emails still sending at shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
