/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagekit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storagekit"
	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore/testmodels"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/queues"
	"github.com/suparena/storagekit/tables"
)

func memoryConfig() storagekit.Config {
	memory := account.FromConnectionString("Provider=memory")
	return storagekit.Config{
		Tables: &storagekit.ServiceConfig{Source: memory},
		Queues: &storagekit.ServiceConfig{Source: memory},
	}
}

func TestOrdersScenario(t *testing.T) {
	ctx := context.Background()
	client, err := storagekit.New(ctx, memoryConfig())
	require.NoError(t, err)

	_, err = client.Tables.CreateTable(ctx, "Orders")
	require.NoError(t, err)

	_, err = client.Tables.Insert(ctx, "Orders", testmodels.NewOrder("P1", "R1", 10))
	require.NoError(t, err)

	got, err := tables.RetrieveEntity[testmodels.Order](ctx, client.Tables, "Orders", "P1", "R1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.Amount)

	_, err = client.Tables.Delete(ctx, "Orders", got)
	require.NoError(t, err)

	got, err = tables.RetrieveEntity[testmodels.Order](ctx, client.Tables, "Orders", "P1", "R1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnconfiguredService(t *testing.T) {
	ctx := context.Background()
	client, err := storagekit.New(ctx, memoryConfig())
	require.NoError(t, err)

	_, err = client.Blobs.GetContainer(ctx, "images")
	assert.True(t, errors.IsUnavailable(err))

	require.NoError(t, queues.Enqueue(ctx, client.Queues, "emails", &testmodels.Email{To: "a@example.com"}))
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing config key", func(t *testing.T) {
		_, err := storagekit.New(ctx, storagekit.Config{
			Tables: &storagekit.ServiceConfig{Source: account.FromConfigKey("STORAGEKIT_TEST_UNSET_KEY")},
		})
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("malformed connection string", func(t *testing.T) {
		_, err := storagekit.New(ctx, storagekit.Config{
			Queues: &storagekit.ServiceConfig{Source: account.FromConnectionString("garbage")},
		})
		assert.True(t, errors.IsInvalidFormat(err))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := storagekit.New(ctx, storagekit.Config{
			Tables: &storagekit.ServiceConfig{Driver: "cassandra", Source: account.FromConnectionString("Provider=memory")},
		})
		assert.Error(t, err)
	})

	t.Run("provider without driver", func(t *testing.T) {
		_, err := storagekit.New(ctx, storagekit.Config{
			Tables: &storagekit.ServiceConfig{Source: account.FromConnectionString("Provider=redis;RedisAddr=localhost:6379")},
		})
		assert.ErrorContains(t, err, "no default table driver")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("STORAGEKIT_TEST_QUEUE_CONN", "Provider=memory")

	path := filepath.Join(t.TempDir(), "storagekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  driver: memory
  origin: connection_string
  connection_string: Provider=memory
queues:
  origin: config_key
  config_key: STORAGEKIT_TEST_QUEUE_CONN
retry:
  max_attempts: 5
  interval: 10ms
public_access: blob
receive_timeout: 2s
`), 0o600))

	cfg, err := storagekit.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Tables.Driver)
	assert.Equal(t, account.OriginConnectionString, cfg.Tables.Origin)
	assert.Equal(t, "STORAGEKIT_TEST_QUEUE_CONN", cfg.Queues.ConfigKey)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.Interval)
	assert.Equal(t, 2*time.Second, cfg.ReceiveTimeout)
	assert.Nil(t, cfg.Blobs)

	client, err := storagekit.New(context.Background(), *cfg)
	require.NoError(t, err)
	require.NoError(t, queues.Enqueue(context.Background(), client.Queues, "jobs", &testmodels.Email{To: "a@example.com"}))
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	_, err := storagekit.ParseConfig([]byte("public_access: everyone\n"))
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = storagekit.ParseConfig([]byte("tables: [1, 2\n"))
	assert.True(t, errors.IsInvalidFormat(err))
}

func TestDefaultDriver(t *testing.T) {
	assert.Equal(t, "azuretable", storagekit.DefaultDriver("table", account.ProviderAzure))
	assert.Equal(t, "sqsqueue", storagekit.DefaultDriver("queue", account.ProviderAWS))
	assert.Equal(t, "gcppubsub", storagekit.DefaultDriver("topic", account.ProviderGCP))
	assert.Empty(t, storagekit.DefaultDriver("blob", account.ProviderRedis))
}

func TestMetricsConfig(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.Metrics = true

	for i := 0; i < 2; i++ {
		client, err := storagekit.New(ctx, cfg)
		require.NoError(t, err)
		require.NoError(t, queues.Enqueue(ctx, client.Queues, "jobs", &testmodels.Email{To: "a@example.com"}))
	}

	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "storagekit_create_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	parsed, err := storagekit.ParseConfig([]byte("metrics: true\n"))
	require.NoError(t, err)
	assert.True(t, parsed.Metrics)
}
