package di

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/platform/config"
	"github.com/apper-canvas/freshcartelevate/internal/platform/idempotency"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

func memoryConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load(context.Background(), config.WithEnvMap(env), config.WithoutSystemEnv(), config.WithEnvFile(""))
	require.NoError(t, err)
	return cfg
}

func TestNewContainerWithMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t, nil)

	reg, err := NewRegistry(ctx, cfg, RegistryDeps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(ctx) })

	_, isMemory := reg.IdempotencyStore().(*idempotency.MemoryStore)
	assert.True(t, isMemory)

	container, err := NewContainer(ctx, cfg, reg, ContainerDeps{
		Build: services.BuildInfo{Version: "test"},
		Clock: func() time.Time { return time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	svc := container.Services
	require.NotNil(t, svc.Catalog)
	require.NotNil(t, svc.Cart)
	require.NotNil(t, svc.Orders)
	require.NotNil(t, svc.Checkout)
	require.NotNil(t, svc.Delivery)
	require.NotNil(t, svc.Stores)
	require.NotNil(t, svc.System)

	products, err := svc.Catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	stores, err := svc.Stores.ListStores(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, stores)

	report, err := svc.System.HealthReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatusOK, report.Status)
	assert.Equal(t, "test", report.Version)
	assert.Equal(t, "local", report.Environment)
	assert.Empty(t, report.Checks)
}

func TestNewRegistryUsesRedisWhenConfigured(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := memoryConfig(t, map[string]string{"API_REDIS_URL": "redis://" + mr.Addr()})

	reg, err := NewRegistry(ctx, cfg, RegistryDeps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(ctx) })

	_, isRedis := reg.IdempotencyStore().(*idempotency.RedisStore)
	assert.True(t, isRedis)

	report, err := reg.Health().Collect(ctx)
	require.NoError(t, err)
	require.Contains(t, report.Checks, "redis")
	assert.Equal(t, domain.HealthStatusOK, report.Checks["redis"].Status)
}

func TestNewContainerRequiresRegistry(t *testing.T) {
	_, err := NewContainer(context.Background(), config.Config{}, nil, ContainerDeps{})
	require.Error(t, err)
}
