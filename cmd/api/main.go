package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/apper-canvas/freshcartelevate/internal/di"
	"github.com/apper-canvas/freshcartelevate/internal/handlers"
	"github.com/apper-canvas/freshcartelevate/internal/platform/auth"
	"github.com/apper-canvas/freshcartelevate/internal/platform/config"
	"github.com/apper-canvas/freshcartelevate/internal/platform/idempotency"
	"github.com/apper-canvas/freshcartelevate/internal/platform/jobs"
	"github.com/apper-canvas/freshcartelevate/internal/platform/observability"
	"github.com/apper-canvas/freshcartelevate/internal/platform/secrets"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("api")

	fetcher, err := newSecretFetcher(ctx, logger)
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
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	registry, err := di.NewRegistry(ctx, cfg, di.RegistryDeps{
		Logger:  logger.Named("repositories"),
		Metrics: metrics,
		Clock:   time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	events, stopEvents, err := newOrderEventPublisher(ctx, cfg, logger.Named("events"))
	if err != nil {
		logger.Fatal("failed to initialise order event publisher", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(cfg, startedAt)
	container, err := di.NewContainer(ctx, cfg, registry, di.ContainerDeps{
		Logger:  logger,
		Metrics: metrics,
		Events:  events,
		Build:   buildInfo,
		Clock:   time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("repository close error", zap.Error(err))
		}
	}()

	shopperMiddleware, err := buildShopperMiddleware(ctx, cfg, logger.Named("auth"))
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}

	idempotencyMiddleware := idempotency.Middleware(
		registry.IdempotencyStore(),
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(logger.Named("idempotency")),
	)

	svc := container.Services
	storeHandlers := handlers.NewStoreHandlers(svc.Stores)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(svc.System),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithHandlerTimeout(cfg.Server.HandlerTimeout),
		handlers.WithMiddlewares(middlewares...),
		handlers.WithAPIMiddlewares(shopperMiddleware),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(svc.Catalog, svc.Cart).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(svc.Cart, svc.Catalog).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(svc.Orders, idempotencyMiddleware).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(svc.Checkout, idempotencyMiddleware).Routes),
		handlers.WithDeliveryRoutes(handlers.NewDeliveryHandlers(svc.Delivery).Routes),
		handlers.WithStoreRoutes(storeHandlers.Routes),
		handlers.WithMeRoutes(storeHandlers.MeRoutes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "freshcart-api"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("freshcart api listening",
			zap.String("environment", cfg.Security.Environment),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("auth", cfg.Security.AuthEnabled),
		)
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
	stopEvents()
}

func buildInfoFromEnv(cfg config.Config, started time.Time) services.BuildInfo {
	version := lookupEnv("API_BUILD_VERSION")
	if version == "" {
		version = "dev"
	}
	commit := lookupEnv("API_BUILD_COMMIT_SHA")
	if commit == "" {
		commit = "unknown"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: cfg.Security.Environment,
		StartedAt:   started,
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger) (*secrets.Fetcher, error) {
	project := lookupEnv("API_SECRET_PROJECT_ID")
	if project == "" {
		project = lookupEnv("API_FIREBASE_PROJECT_ID")
	}
	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(project),
	}
	if path := lookupEnv("API_SECRET_FALLBACK_FILE"); path != "" {
		opts = append(opts, secrets.WithFallbackFile(path))
	}
	if credentials := lookupEnv("API_FIREBASE_CREDENTIALS_FILE"); credentials != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentials)))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// newOrderEventPublisher publishes to Pub/Sub when a project is configured and logs events
// otherwise. The returned stop func flushes pending messages.
func newOrderEventPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.OrderEventPublisher, func(), error) {
	if cfg.PubSub.ProjectID == "" {
		return jobs.NewLogOrderEventPublisher(logger), func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := jobs.NewPubSubOrderEventPublisher(client.Topic(cfg.PubSub.OrderTopic))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	stop := func() {
		publisher.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}
	return publisher, stop, nil
}

// buildShopperMiddleware verifies Firebase ID tokens when auth is enabled. Otherwise every
// request is served as the guest shopper.
func buildShopperMiddleware(ctx context.Context, cfg config.Config, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if !cfg.Security.AuthEnabled {
		logger.Info("auth disabled; serving guest shopper")
		return auth.NewShopperResolver(nil).Middleware(), nil
	}
	var opts []auth.FirebaseOption
	if cfg.Security.CheckRevoked {
		opts = append(opts, auth.WithRevocationCheck())
	}
	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase, opts...)
	if err != nil {
		return nil, err
	}
	return auth.NewShopperResolver(verifier).Middleware(), nil
}

func lookupEnv(key string) string {
	value, err := config.Lookup(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
