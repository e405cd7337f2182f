package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/ai"
	httptransport "github.com/spec-kit/ticket-hub/internal/api/http"
	"github.com/spec-kit/ticket-hub/internal/api/http/handlers"
	"github.com/spec-kit/ticket-hub/internal/auth"
	"github.com/spec-kit/ticket-hub/internal/config"
	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/events"
	"github.com/spec-kit/ticket-hub/internal/observability"
	"github.com/spec-kit/ticket-hub/internal/pagination"
	"github.com/spec-kit/ticket-hub/internal/persistence"
	"github.com/spec-kit/ticket-hub/internal/provider"
	"github.com/spec-kit/ticket-hub/internal/repository"
	"github.com/spec-kit/ticket-hub/internal/service"
	"github.com/spec-kit/ticket-hub/internal/worker"
)

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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	integrationRepo := repository.NewIntegrationRepository(pool)
	lookupRepo := repository.NewLookupRepository(pool)
	workspaceRepo := repository.NewWorkspaceRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)

	lookupCache := service.NewLookupCache(lookupRepo, cfg.Cache.LookupTTL())
	mapper := service.NewTicketViewMapper(lookupCache, logger)
	materializer := service.NewTicketMaterializer(ticketRepo, lookupCache, logger)

	registry := provider.NewRegistry()
	if cfg.Providers.BridgeURL != "" {
		bridge := provider.NewBridgeClient(cfg.Providers.BridgeURL, cfg.Providers.Timeout())
		registry.Register(domain.ProviderJira, bridge)
		registry.Register(domain.ProviderLinear, bridge)
		registry.Register(domain.ProviderGitHub, bridge)
	} else {
		logger.Warn("TRACKER_BRIDGE_URL not set, external tracker fetches disabled")
	}

	aiClient := ai.NewClient(cfg.AI, logger)
	var sentimentRedis = redis.ClientHandle()
	if !cfg.Cache.SentimentUseRedis {
		sentimentRedis = nil
	}
	sentiment := service.NewSentimentCache(aiClient, sentimentRedis, metrics, logger)

	coordinator := service.NewExternalFetchCoordinator(service.FetchCoordinatorDependencies{
		Registry:    registry,
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		Mapper:      mapper,
		Metrics:     metrics,
		Logger:      logger,
	})
	orchestrator := service.NewQueryOrchestrator(service.OrchestratorDependencies{
		TicketRepo:      ticketRepo,
		CommentRepo:     commentRepo,
		IntegrationRepo: integrationRepo,
		Codec:           pagination.NewTokenCodec(logger),
		Coordinator:     coordinator,
		Mapper:          mapper,
		Sentiment:       sentiment,
		Logger:          logger,
	})

	dispatcher := events.NewInMemoryDispatcher()
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:      ticketRepo,
		CommentRepo:     commentRepo,
		IntegrationRepo: integrationRepo,
		WorkspaceRepo:   workspaceRepo,
		Registry:        registry,
		Materializer:    materializer,
		Mapper:          mapper,
		Summarizer:      aiClient,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	lookupService := service.NewLookupService(lookupRepo, lookupCache)
	authService := service.NewAuthService(cfg.Auth, agentRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), agentRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Lookups:        handlers.NewLookupsHandler(lookupService),
		Tickets:        handlers.NewTicketsHandler(orchestrator, ticketService, mapper),
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
