package secrets

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeSecretClient struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	calls  map[string]int
}

func newFakeSecretClient() *fakeSecretClient {
	return &fakeSecretClient{values: map[string]string{}, calls: map[string]int{}}
}

func (c *fakeSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[req.GetName()]++
	if c.err != nil {
		return nil, c.err
	}
	value, ok := c.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "missing")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.GetName(),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (c *fakeSecretClient) Close() error { return nil }

func TestResolveCachesRemoteSecret(t *testing.T) {
	ctx := context.Background()
	client := newFakeSecretClient()
	resource := "projects/test/secrets/backend_public_key/versions/latest"
	client.values[resource] = "pk-remote"

	fetcher, err := NewFetcher(ctx, WithSecretManagerClient(client), WithProject("test"), WithFallbackFile(""))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := fetcher.ResolveSecret(ctx, "secret://backend_public_key")
		require.NoError(t, err)
		assert.Equal(t, "pk-remote", got)
	}
	assert.Equal(t, 1, client.calls[resource])
}

func TestResolveHonoursVersionAndAlias(t *testing.T) {
	ctx := context.Background()
	client := newFakeSecretClient()
	client.values["projects/other/secrets/redis_url/versions/3"] = "redis://cache:6379"

	fetcher, err := NewFetcher(ctx, WithSecretManagerClient(client), WithProject("test"), WithFallbackFile(""))
	require.NoError(t, err)

	got, err := fetcher.Resolve(ctx, "sm://redis_url?version=3&project=other")
	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6379", got)
}

func TestResolveFallsBackWhenSecretManagerUnavailable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, ".secrets.local")
	require.NoError(t, os.WriteFile(path, []byte("backend_public_key=pk-local\n"), 0o600))

	client := newFakeSecretClient()
	client.err = status.Error(codes.Unavailable, "down")

	fetcher, err := NewFetcher(ctx, WithSecretManagerClient(client), WithProject("test"), WithFallbackFile(path))
	require.NoError(t, err)

	got, err := fetcher.Resolve(ctx, "secret://backend_public_key")
	require.NoError(t, err)
	assert.Equal(t, "pk-local", got)
}

func TestResolveWithoutProjectUsesFallbackOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(path, []byte("# local development\nredis_url=redis://localhost:6379\n"), 0o600))

	fetcher, err := NewFetcher(ctx, WithFallbackFile(path))
	require.NoError(t, err)

	got, err := fetcher.Resolve(ctx, "secret://redis_url")
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379", got)

	_, err = fetcher.Resolve(ctx, "secret://missing")
	require.Error(t, err)
}

func TestResolvePropagatesPermanentErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeSecretClient()
	client.err = status.Error(codes.InvalidArgument, "bad name")

	fetcher, err := NewFetcher(ctx, WithSecretManagerClient(client), WithProject("test"), WithFallbackFile(""))
	require.NoError(t, err)

	_, err = fetcher.Resolve(ctx, "secret://key")
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestParseReferenceRejectsOtherSchemes(t *testing.T) {
	_, err := parseReference("https://example.com/secret")
	require.Error(t, err)
	_, err = parseReference("secret://")
	require.Error(t, err)
}

func TestResolveFallbackIgnoresVersionAndAlias(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".secrets.local")
	require.NoError(t, os.WriteFile(path, []byte("backend_public_key=pk-local\nredis_url=redis://localhost:6379/0\n"), 0o600))

	fetcher, err := NewFetcher(ctx, WithFallbackFile(path))
	require.NoError(t, err)

	got, err := fetcher.Resolve(ctx, "sm://backend_public_key?version=4")
	require.NoError(t, err)
	assert.Equal(t, "pk-local", got)

	got, err = fetcher.Resolve(ctx, "secret://redis_url")
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", got)
}
