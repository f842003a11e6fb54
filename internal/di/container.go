package di

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/apper-canvas/freshcartelevate/internal/platform/config"
	"github.com/apper-canvas/freshcartelevate/internal/platform/observability"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog  services.CatalogService
	Cart     services.CartService
	Orders   services.OrderService
	Checkout services.CheckoutService
	Delivery services.DeliveryService
	Stores   services.StoreService
	System   services.SystemService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// ContainerDeps carries collaborators that live outside the repository registry.
type ContainerDeps struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Events  services.OrderEventPublisher
	Build   services.BuildInfo
	Clock   func() time.Time
}

// NewContainer constructs the runtime dependencies. Tests can supply a registry built on the
// in-memory repositories.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, deps ContainerDeps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources held by the repository registry.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, deps ContainerDeps) (Services, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	var metrics services.Metrics
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}

	var svc Services

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: reg.Catalog(),
		Logger:  observability.EventLogger(logger.Named("catalog")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Repository: reg.Carts(),
		Metrics:    metrics,
		Logger:     observability.EventLogger(logger.Named("cart")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: reg.Orders(),
		Catalog:    catalogSvc,
		Events:     deps.Events,
		Metrics:    metrics,
		Clock:      clock,
		Logger:     observability.EventLogger(logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	deliverySvc, err := services.NewDeliveryService(services.DeliveryServiceDeps{
		Clock:  clock,
		Mode:   cfg.Delivery.Mode,
		Seed:   strconv.FormatInt(cfg.Delivery.Seed, 10),
		Logger: observability.EventLogger(logger.Named("delivery")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build delivery service: %w", err)
	}
	svc.Delivery = deliverySvc

	storeSvc, err := services.NewStoreService(services.StoreServiceDeps{
		Stores:    reg.Stores(),
		Favorites: reg.Favorites(),
		Inventory: reg.Inventory(),
		CacheTTL:  cfg.Inventory.CacheTTL,
		Clock:     clock,
		Metrics:   metrics,
		Logger:    observability.EventLogger(logger.Named("stores")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build store service: %w", err)
	}
	svc.Stores = storeSvc

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Cart:     cartSvc,
		Orders:   orderSvc,
		Delivery: deliverySvc,
		Logger:   observability.EventLogger(logger.Named("checkout")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		build := deps.Build
		if build.Environment == "" {
			build.Environment = cfg.Security.Environment
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            clock,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
