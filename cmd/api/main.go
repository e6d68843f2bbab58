package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/veldpost/api/internal/di"
	"github.com/veldpost/api/internal/handlers"
	"github.com/veldpost/api/internal/platform/config"
	pfirestore "github.com/veldpost/api/internal/platform/firestore"
	"github.com/veldpost/api/internal/platform/idempotency"
	"github.com/veldpost/api/internal/platform/jobs"
	"github.com/veldpost/api/internal/platform/observability"
	"github.com/veldpost/api/internal/platform/secrets"
	"github.com/veldpost/api/internal/repositories"
	firestoreRepo "github.com/veldpost/api/internal/repositories/firestore"
	"github.com/veldpost/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithDefaultProject(os.Getenv("GOOGLE_CLOUD_PROJECT")),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(fetcher))
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	profileRepo, err := firestoreRepo.NewProductProfileRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise profile repository", zap.Error(err))
	}
	configRepo, err := firestoreRepo.NewCarrierConfigRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise carrier config repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}

	checks := []repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				iter := firestoreClient.Collection("carrier_settings").Limit(1).Documents(ctx)
				defer iter.Stop()
				if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
					return err
				}
				return nil
			},
		},
	}

	var publisher services.ConsignmentPublisher
	if cfg.Features.EnableConsignmentPublish {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()

		topic := pubsubClient.Topic(cfg.PubSub.ConsignmentTopic)
		defer topic.Stop()

		publisher, err = jobs.NewPubSubConsignmentPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise consignment publisher", zap.Error(err))
		}

		checks = append(checks, repositories.DependencyCheck{
			Name: "pubsub",
			Check: func(ctx context.Context) error {
				ok, err := topic.Exists(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("topic %s does not exist", cfg.PubSub.ConsignmentTopic)
				}
				return nil
			},
		})
	}

	healthRepo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, di.Repositories{
		Profiles:  profileRepo,
		Config:    configRepo,
		Orders:    orderRepo,
		Health:    healthRepo,
		Publisher: publisher,
	}, logger)
	if err != nil {
		logger.Fatal("failed to wire services", zap.Error(err))
	}

	healthHandlers := handlers.NewHealthHandlers(handlers.WithHealthReporter(healthRepo))
	rateHandlers := handlers.NewRateHandlers(container.Services.Rates)
	shipmentHandlers := handlers.NewShipmentHandlers(container.Services.Consignments)
	diagnosticsHandlers := handlers.NewDiagnosticsHandlers(configRepo)

	// Conversion is the only mutating endpoint; retried back-office calls must
	// not register the same consignment twice.
	idemStore := idempotency.NewFirestoreStore(firestoreClient)
	idemMiddleware := idempotency.Middleware(idemStore,
		idempotency.WithMethods(http.MethodPost),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithRateRoutes(rateHandlers.Routes),
		handlers.WithShipmentRoutes(func(r chi.Router) {
			r.Group(func(group chi.Router) {
				group.Use(idemMiddleware)
				shipmentHandlers.Routes(group)
			})
		}),
		handlers.WithInternalRoutes(diagnosticsHandlers.Routes),
		handlers.WithInternalMiddlewares(middleware.NoCache),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("veldpost api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
